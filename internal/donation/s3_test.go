package donation_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ubuntu/ddp-insights/internal/donation"
)

type mockStore struct {
	mu        sync.Mutex
	exists    bool
	existsErr error
	putErr    error

	made    []string
	objects map[string]string
}

func (m *mockStore) BucketExists(context.Context, string) (bool, error) {
	return m.exists, m.existsErr
}

func (m *mockStore) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.made = append(m.made, bucket)
	return nil
}

func (m *mockStore) PutObject(_ context.Context, bucket, object string, reader io.Reader, size int64, _ minio.PutObjectOptions) (minio.UploadInfo, error) {
	if m.putErr != nil {
		return minio.UploadInfo{}, m.putErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = make(map[string]string)
	}
	m.objects[bucket+"/"+object] = string(data)
	return minio.UploadInfo{Bucket: bucket, Key: object, Size: size}, nil
}

func TestS3Sink(t *testing.T) {
	t.Parallel()

	valid := donation.S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s", Bucket: "ddp", Prefix: "/study/"}

	tests := map[string]struct {
		config donation.S3Config
		store  *mockStore
		key    string

		wantObject     string
		wantMadeBucket bool
		wantNewErr     bool
		wantErr        bool
	}{
		"Object is uploaded to an existing bucket": {config: valid, store: &mockStore{exists: true}, key: "s1", wantObject: "ddp/study/s1.json"},
		"Missing bucket is created":                {config: valid, store: &mockStore{}, key: "s1", wantObject: "ddp/study/s1.json", wantMadeBucket: true},

		"Error on invalid config": {config: donation.S3Config{Endpoint: "localhost:9000"}, store: &mockStore{}, wantNewErr: true},
		"Error on bucket check":   {config: valid, store: &mockStore{existsErr: errors.New("requested failure")}, key: "s1", wantErr: true},
		"Error on upload":         {config: valid, store: &mockStore{exists: true, putErr: errors.New("requested failure")}, key: "s1", wantErr: true},
		"Error on invalid key":    {config: valid, store: &mockStore{exists: true}, key: "../s1", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var gotRegion string
			newStore := func(cfg donation.S3Config) (donation.ObjectStore, error) {
				gotRegion = cfg.Region
				return tc.store, nil
			}

			s, err := donation.NewS3Sink(context.Background(), tc.config, donation.WithNewStore(newStore))
			if tc.wantNewErr {
				require.Error(t, err, "NewS3Sink should fail")
				return
			}
			require.NoError(t, err, "NewS3Sink should not fail")
			defer s.Close()
			assert.Equal(t, "us-east-1", gotRegion, "Region should default to us-east-1")

			err = s.Donate(context.Background(), tc.key, []byte(`{"status":"DONATED"}`))
			if tc.wantErr {
				require.Error(t, err, "Donate should fail")
				return
			}
			require.NoError(t, err, "Donate should not fail")
			assert.Equal(t, map[string]string{tc.wantObject: `{"status":"DONATED"}`}, tc.store.objects, "Donation should be uploaded")
			if tc.wantMadeBucket {
				assert.Equal(t, []string{"ddp"}, tc.store.made, "Missing bucket should be created")
			} else {
				assert.Empty(t, tc.store.made, "Existing bucket should not be created")
			}
		})
	}
}
