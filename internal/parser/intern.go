package parser

// MaxInternPoolSize limits the intern pool to prevent unbounded memory growth.
// Once reached, strings are returned without being stored.
const MaxInternPoolSize = 100000

// StringIntern deduplicates strings that repeat across the records of one
// dump, such as logcat tags, section names and pids. It is not safe for
// concurrent use; each decode creates its own.
type StringIntern struct {
	pool map[string]string
}

// NewStringIntern creates a new string interner.
func NewStringIntern() *StringIntern {
	return &StringIntern{
		pool: make(map[string]string, 256),
	}
}

// Intern returns the canonical version of the string.
func (si *StringIntern) Intern(s string) string {
	if pooled, ok := si.pool[s]; ok {
		return pooled
	}
	if len(si.pool) >= MaxInternPoolSize {
		return s
	}
	si.pool[s] = s
	return s
}

