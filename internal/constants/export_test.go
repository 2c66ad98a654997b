package constants

// Option is exported for tests to override the base directory lookup.
type Option = option

func WithBaseDir(baseDir func() (string, error)) option {
	return func(o *options) {
		o.baseDir = baseDir
	}
}
