package formstream

import (
	"errors"
	"fmt"
	"io"
)

// HookFunc is called once for each Part whose name has a registered hook, in
// the order the part appears in the stream. The Part's Body is readable
// only until HookFunc returns; whatever the hook leaves unread is drained
// and discarded before the next part is read.
type HookFunc func(*Part) error

// DuplicateHookNameError is returned by Register when name already has a
// hook registered.
type DuplicateHookNameError struct {
	Name string
}

func (e DuplicateHookNameError) Error() string {
	return fmt.Sprintf("formstream: duplicate hook name: %s", e.Name)
}

// HookParser runs hooks against named parts of a multipart stream as they
// arrive, collecting every other part's body (bounded by the same resource
// options as IterateMultipart) for later retrieval via Value/Values.
//
// Unlike a map of deferred conditions, hooks fire strictly in stream order:
// a hook for a part that never appears simply never runs, and a part
// appearing before its hook is registered still reaches that hook, since
// registration happens up front, before Run is called.
type HookParser struct {
	hooks map[string]HookFunc

	boundary string
	opts     []Option

	valueMap map[string][]*Part
}

// NewHookParser creates a HookParser for the given boundary (without the
// leading "--").
func NewHookParser(boundary string, opts ...Option) *HookParser {
	return &HookParser{
		hooks:    make(map[string]HookFunc),
		boundary: boundary,
		opts:     opts,
		valueMap: make(map[string][]*Part),
	}
}

// Register associates fn with every future part named name. Registering the
// same name twice is an error.
func (hp *HookParser) Register(name string, fn HookFunc) error {
	if _, ok := hp.hooks[name]; ok {
		return DuplicateHookNameError{Name: name}
	}
	hp.hooks[name] = fn
	return nil
}

// Run streams src through the registered hooks: each part whose name has a
// hook is passed to it with a lazy, streamed Body; every other part is
// collected (subject to the same WithMaxMemSize/WithMaxMemFileSize budgets
// as IterateMultipart) and becomes retrievable through Value/Values/
// ValueMap once Run returns.
func (hp *HookParser) Run(src ByteSource) (err error) {
	coll := newCollector(newConfig(hp.opts))
	defer func() {
		if closeErr := coll.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	it := StreamMultipart(src, hp.boundary, hp.opts...)
	for {
		part, nextErr := it.Next()
		if errors.Is(nextErr, io.EOF) {
			return nil
		}
		if nextErr != nil {
			return nextErr
		}

		if hook, ok := hp.hooks[part.Name]; ok {
			if err := hook(part); err != nil {
				return fmt.Errorf("formstream: hook %q failed: %w", part.Name, err)
			}
			continue
		}

		body, err := coll.collect(part.Body)
		if err != nil {
			return err
		}
		part.Body = body
		hp.valueMap[part.Name] = append(hp.valueMap[part.Name], part)
	}
}

// Value returns the first collected (non-hooked) part named key.
func (hp *HookParser) Value(key string) (*Part, bool) {
	values := hp.valueMap[key]
	if len(values) == 0 {
		return nil, false
	}
	return values[0], true
}

// Values returns every collected (non-hooked) part named key.
func (hp *HookParser) Values(key string) ([]*Part, bool) {
	values, ok := hp.valueMap[key]
	return values, ok
}

// ValueMap returns every collected (non-hooked) part, keyed by name.
func (hp *HookParser) ValueMap() map[string][]*Part {
	return hp.valueMap
}
