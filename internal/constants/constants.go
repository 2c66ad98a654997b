// Package constants is responsible for defining the constants used in the application.
// It also provides utility functions to get the default consent and donation paths.
package constants

import (
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// CmdName is the name of the command line tool.
	CmdName = "ddp-insights"

	// DefaultAppFolder is the name of the default root folder.
	DefaultAppFolder = "ddp-insights"

	// DefaultLogLevel is the default log level selected without any verbosity flags.
	DefaultLogLevel = slog.LevelWarn

	// ConsentFileName is the base name of the stored consent files.
	ConsentFileName = "consent.toml"

	// ConsentPlatformSeparator separates the platform from the base name of a consent file.
	ConsentPlatformSeparator = "-"

	// DonationFolder is the folder, under the data dir, the file sink writes donations to.
	DonationFolder = "donations"

	// DonationExtension is the extension of uncompressed donation files.
	DonationExtension = ".json"

	// CompressedDonationExtension is the extension of zstd compressed donation files.
	CompressedDonationExtension = ".json.zst"

	// ExitSuccess is the code handed back to the host once a flow completes.
	ExitSuccess = 0

	// ExitSuccessInfo is the message handed back alongside ExitSuccess.
	ExitSuccessInfo = "Success"

	// DeclinedStatus is the payload donated when the participant declines.
	DeclinedStatus = `{"status": "data_submission declined"}`
)

// Donation key suffixes for the status records emitted around a session.
const (
	TrackingKeySuffix          = "-tracking"
	SkipFileSelectionKeySuffix = "-SKIP-FILE-SELECTION"
	SkipRetryFlowKeySuffix     = "-SKIP-RETRY-FLOW"
	DonatedKeySuffix           = "-DONATED"
	QuestionnaireKeySuffix     = "-questionnaire"
)

type options struct {
	baseDir func() (string, error)
}

type option func(*options)

// GetDefaultConsentPath is the default path to the consent directory.
func GetDefaultConsentPath(opts ...option) string {
	o := options{baseDir: os.UserConfigDir}
	for _, opt := range opts {
		opt(&o)
	}

	return filepath.Join(baseDir(o.baseDir), DefaultAppFolder)
}

// GetDefaultDataPath is the default path under which donations are stored by the file sink.
func GetDefaultDataPath(opts ...option) string {
	o := options{baseDir: os.UserCacheDir}
	for _, opt := range opts {
		opt(&o)
	}

	return filepath.Join(baseDir(o.baseDir), DefaultAppFolder, DonationFolder)
}

// baseDir returns the directory from baseDirFunc, or an empty string on error.
func baseDir(baseDirFunc func() (string, error)) string {
	dir, err := baseDirFunc()
	if err != nil {
		return ""
	}
	return dir
}
