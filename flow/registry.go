package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"go.uber.org/atomic"

	"github.com/agentique/relay/components"
	"github.com/agentique/relay/components/systemprompt"
	"github.com/agentique/relay/schema"
)

var (
	ErrCapabilityConflict = errors.New("capability name already bound to a different body")
	ErrRegistryFrozen     = errors.New("registry is frozen")
)

// DefaultExecutionTimeout bounds a single capability execution.
const DefaultExecutionTimeout = 60 * time.Second

// CapabilityFunc executes a capability with decoded, validated arguments.
type CapabilityFunc func(ctx context.Context, args schema.Schema) (schema.Schema, error)

// Capability binds a name to its parameter schema, its executable body, the
// agent that executes it, and the agents allowed to request it.
type Capability struct {
	name        string
	description string
	prototype   func() schema.Schema
	fn          CapabilityFunc
	executor    string
	requesters  map[string]struct{}
}

func (c *Capability) Name() string {
	return c.name
}

func (c *Capability) Description() string {
	return c.description
}

// Executor is the agent authorized to run this capability.
func (c *Capability) Executor() string {
	return c.executor
}

// Schema reflects the JSON schema of the capability's parameter prototype.
func (c *Capability) Schema() *jsonschema.Schema {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
		Anonymous:      true,
	}
	return reflector.Reflect(c.prototype())
}

// Typed adapts a strongly typed tool method into the prototype constructor
// and CapabilityFunc pair Register expects.
func Typed[I any, PI interface {
	*I
	schema.Schema
}, O schema.Schema](run func(context.Context, PI) (O, error)) (func() schema.Schema, CapabilityFunc) {
	prototype := func() schema.Schema {
		return PI(new(I))
	}
	fn := func(ctx context.Context, args schema.Schema) (schema.Schema, error) {
		input, ok := args.(PI)
		if !ok {
			return nil, fmt.Errorf("unexpected argument type %T", args)
		}
		return run(ctx, input)
	}
	return prototype, fn
}

// Registry maps capability names to executable bodies. It is populated once
// during setup, frozen before the driver starts, and read-only afterwards.
type Registry struct {
	caps     map[string]*Capability
	frozen   *atomic.Bool
	timeout  time.Duration
	validate *validator.Validate
	mtx      sync.RWMutex
}

type RegistryOption func(*Registry)

// WithExecutionTimeout bounds each capability execution; expiry is reported
// as an execution failure, not a crash.
func WithExecutionTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		r.timeout = d
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	ret := &Registry{
		caps:     make(map[string]*Capability),
		frozen:   atomic.NewBool(false),
		timeout:  DefaultExecutionTimeout,
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Register binds name to a capability executed by executor. An empty
// requesters list means any agent may request it. Registering a name already
// bound to a different body is a configuration error; re-registering the
// same body extends the requester set.
func (r *Registry) Register(name, description string, prototype func() schema.Schema, fn CapabilityFunc, executor string, requesters ...string) error {
	if r.frozen.Load() {
		return fmt.Errorf("%w: cannot register %q", ErrRegistryFrozen, name)
	}
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if existing, ok := r.caps[name]; ok {
		if reflect.ValueOf(existing.fn).Pointer() != reflect.ValueOf(fn).Pointer() {
			return fmt.Errorf("%w: %q", ErrCapabilityConflict, name)
		}
		for _, requester := range requesters {
			existing.requesters[requester] = struct{}{}
		}
		return nil
	}
	item := &Capability{
		name:        name,
		description: description,
		prototype:   prototype,
		fn:          fn,
		executor:    executor,
		requesters:  make(map[string]struct{}, len(requesters)),
	}
	for _, requester := range requesters {
		item.requesters[requester] = struct{}{}
	}
	r.caps[name] = item
	return nil
}

// Freeze marks the registry read-only. Called by the driver before the first
// session starts.
func (r *Registry) Freeze() {
	r.frozen.Store(true)
}

// Lookup returns the capability bound to name.
func (r *Registry) Lookup(name string) (*Capability, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	item, ok := r.caps[name]
	return item, ok
}

// Authorize reports whether requester may request the named capability.
func (r *Registry) Authorize(requester, name string) bool {
	item, ok := r.Lookup(name)
	if !ok {
		return false
	}
	if len(item.requesters) == 0 {
		return true
	}
	_, ok = item.requesters[requester]
	return ok
}

// Capabilities lists the capabilities requester may request, sorted by name.
func (r *Registry) Capabilities(requester string) []*Capability {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	ret := make([]*Capability, 0, len(r.caps))
	for _, item := range r.caps {
		if len(item.requesters) == 0 {
			ret = append(ret, item)
			continue
		}
		if _, ok := item.requesters[requester]; ok {
			ret = append(ret, item)
		}
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].name < ret[j].name
	})
	return ret
}

// Execute resolves and runs a capability request on behalf of requester,
// with executor as the session counterpart expected to run it. It is total:
// unknown names, authorization failures, bad arguments, timeouts and panics
// all come back as an error callback, never as a fault that could abort the
// driver.
func (r *Registry) Execute(ctx context.Context, call *components.ToolCall, requester, executor string) *components.ToolCallback {
	ret := &components.ToolCallback{ID: call.ID, Name: call.Name}
	item, ok := r.Lookup(call.Name)
	if !ok {
		ret.IsError = true
		ret.Content = fmt.Sprintf("no capability named %q is registered", call.Name)
		return ret
	}
	if item.executor != executor {
		ret.IsError = true
		ret.Content = fmt.Sprintf("capability %q is executed by %q, not by %q", call.Name, item.executor, executor)
		return ret
	}
	if !r.Authorize(requester, call.Name) {
		ret.IsError = true
		ret.Content = fmt.Sprintf("agent %q is not authorized to request capability %q", requester, call.Name)
		return ret
	}
	args := item.prototype()
	if strings.TrimSpace(call.Arguments) != "" {
		if err := json.Unmarshal([]byte(call.Arguments), args); err != nil {
			ret.IsError = true
			ret.Content = fmt.Sprintf("invalid arguments: %s", err.Error())
			return ret
		}
	}
	if rv := reflect.Indirect(reflect.ValueOf(args)); rv.Kind() == reflect.Struct {
		if err := r.validate.Struct(args); err != nil {
			ret.IsError = true
			ret.Content = fmt.Sprintf("invalid arguments: %s", err.Error())
			return ret
		}
	}
	out, err := r.run(ctx, item, args)
	if err != nil {
		ret.IsError = true
		ret.Content = err.Error()
		return ret
	}
	ret.Content = schema.Stringify(out)
	return ret
}

func (r *Registry) run(ctx context.Context, item *Capability, args schema.Schema) (schema.Schema, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	type result struct {
		out schema.Schema
		err error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				ch <- result{err: fmt.Errorf("capability %q panicked: %v", item.name, rec)}
			}
		}()
		out, err := item.fn(ctx, args)
		ch <- result{out: out, err: err}
	}()
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("capability %q: %w", item.name, ctx.Err())
	case res := <-ch:
		if res.err != nil {
			return nil, res.err
		}
		return res.out, nil
	}
}

// ContextProvider renders the capabilities agent may request, with their
// JSON parameter schemas, for injection into the agent's system prompt.
func (r *Registry) ContextProvider(agent string) systemprompt.ContextProvider {
	return &capabilityProvider{registry: r, agent: agent}
}

type capabilityProvider struct {
	registry *Registry
	agent    string
}

func (p *capabilityProvider) Title() string {
	return "AVAILABLE CAPABILITIES"
}

func (p *capabilityProvider) Info() string {
	items := p.registry.Capabilities(p.agent)
	if len(items) == 0 {
		return "None."
	}
	var b strings.Builder
	b.WriteString("To use a capability, set tool_call to its name with JSON arguments matching the parameter schema.\n")
	for _, item := range items {
		bs, _ := json.Marshal(item.Schema())
		fmt.Fprintf(&b, "- %s: %s\n  parameters: %s\n", item.name, item.description, string(bs))
	}
	return strings.TrimRight(b.String(), "\n")
}
