package expression

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/expr-lang/expr/vm"
)

type CompiledExpression struct {
	Program *vm.Program
	Text    string
}

// File is the set of facts an ignore expression can test.
type File struct {
	Path    string
	Name    string
	Dir     string
	Size    int64
	ModTime time.Time
}

type evalContext struct {
	Path    string
	Name    string
	Dir     string
	Size    int64
	ModTime time.Time
	Age     time.Duration
}

func newEvalContext(f *File) *evalContext {
	if f == nil {
		return &evalContext{}
	}

	return &evalContext{
		Path:    f.Path,
		Name:    f.Name,
		Dir:     f.Dir,
		Size:    f.Size,
		ModTime: f.ModTime,
		Age:     time.Since(f.ModTime),
	}
}

var regexCache sync.Map

func compileRegex(pattern string) (*regexp2.Regexp, error) {
	if cached, ok := regexCache.Load(pattern); ok {
		return cached.(*regexp2.Regexp), nil
	}

	compiled, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, err
	}

	regexCache.Store(pattern, compiled)
	return compiled, nil
}

// RegexMatch matches pattern (regexp2 syntax) against the file path.
// An invalid pattern never matches.
func (e *evalContext) RegexMatch(pattern string) bool {
	re, err := compileRegex(pattern)
	if err != nil {
		return false
	}

	match, err := re.MatchString(e.Path)
	if err != nil {
		return false
	}

	return match
}

// RegexMatchAny checks the file path against a comma-separated list of patterns.
func (e *evalContext) RegexMatchAny(patternsStr string) bool {
	for _, p := range strings.Split(patternsStr, ",") {
		if e.RegexMatch(strings.TrimSpace(p)) {
			return true
		}
	}

	return false
}

// HasExtension compares the file extension case-insensitively, with or without the leading dot.
func (e *evalContext) HasExtension(ext string) bool {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	return strings.EqualFold(filepath.Ext(e.Name), ext)
}
