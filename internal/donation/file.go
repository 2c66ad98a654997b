package donation

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/ubuntu/ddp-insights/internal/constants"
	"github.com/ubuntu/ddp-insights/internal/fileutils"
	"github.com/ubuntu/decorate"
)

// FileConfig configures the file sink.
type FileConfig struct {
	Dir      string `mapstructure:"dir" validate:"required"`
	Compress bool   `mapstructure:"compress"`
}

// FileSink writes each donation to its own file, named after the key.
type FileSink struct {
	dir     string
	encoder *zstd.Encoder

	log *slog.Logger
}

// NewFileSink returns a FileSink writing under cfg.Dir.
func NewFileSink(cfg FileConfig, args ...Options) (*FileSink, error) {
	if err := check(KindFile, &cfg); err != nil {
		return nil, err
	}
	opts := newOptions(args)

	s := &FileSink{dir: cfg.Dir, log: opts.log}
	if cfg.Compress {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %v", err)
		}
		s.encoder = enc
	}
	return s, nil
}

// Path returns the file the donation for key is written to.
func (s *FileSink) Path(key string) string {
	ext := constants.DonationExtension
	if s.encoder != nil {
		ext = constants.CompressedDonationExtension
	}
	return filepath.Join(s.dir, key+ext)
}

// Donate writes data to the file of key, replacing a previous donation with the same key.
func (s *FileSink) Donate(_ context.Context, key string, data []byte) (err error) {
	defer decorate.OnError(&err, "could not write donation %q", key)

	if err := checkKey(key); err != nil {
		return err
	}
	if s.encoder != nil {
		data = s.encoder.EncodeAll(data, make([]byte, 0, len(data)/2))
	}

	path := s.Path(key)
	if err := fileutils.AtomicWrite(s.log, path, data, 0600); err != nil {
		return err
	}
	s.log.Debug("Donation written", "key", key, "file", path)
	return nil
}

// Close releases the compression resources.
func (s *FileSink) Close() error {
	if s.encoder != nil {
		return s.encoder.Close()
	}
	return nil
}
