package loader

import (
	"math/big"
	"reflect"
	"strconv"

	"github.com/dop251/goja"

	"github.com/reoring/zod2jsonschema/internal/value"
)

// describeProps lists the enumerable own properties of an object as
// [key, value, isGetter] triples without invoking accessors.
const describeProps = `(function (o) {
	return Object.keys(o).map(function (k) {
		var d = Object.getOwnPropertyDescriptor(o, k);
		return d.get ? [k, d.get, true] : [k, d.value, false];
	});
})`

// bridge converts between runtime values and the internal/value model. Go
// values handed to the runtime keep their identity: converting them back
// yields the original Go value.
type bridge struct {
	rt       *goja.Runtime
	props    goja.Callable
	toRT     map[any]*goja.Object
	fromRT   map[*goja.Object]any
	regexpFn goja.Value
}

func newBridge(rt *goja.Runtime) *bridge {
	b := &bridge{
		rt:       rt,
		toRT:     make(map[any]*goja.Object),
		fromRT:   make(map[*goja.Object]any),
		regexpFn: rt.Get("RegExp"),
	}
	fn, err := rt.RunString(describeProps)
	if err != nil {
		panic(err)
	}
	b.props, _ = goja.AssertFunction(fn)
	return b
}

func (b *bridge) remember(v any, o *goja.Object) *goja.Object {
	if reflect.TypeOf(v).Comparable() {
		b.toRT[v] = o
	}
	b.fromRT[o] = v
	return o
}

// toJS converts a Go value for the runtime.
func (b *bridge) toJS(v any) goja.Value {
	switch t := v.(type) {
	case nil:
		return goja.Null()
	case value.UndefinedValue:
		return goja.Undefined()
	case string, float64, bool:
		return b.rt.ToValue(t)
	case []any:
		items := make([]any, len(t))
		for i, e := range t {
			items[i] = b.toJS(e)
		}
		return b.rt.NewArray(items...)
	case *value.Getter:
		out, err := t.Fn.Invoke()
		if err != nil {
			panic(b.rt.NewGoError(err))
		}
		return b.toJS(out)
	}
	if reflect.TypeOf(v).Comparable() {
		if o, ok := b.toRT[v]; ok {
			return o
		}
	}
	switch t := v.(type) {
	case *value.Function:
		fn := b.rt.ToValue(func(call goja.FunctionCall) goja.Value {
			args := make([]any, len(call.Arguments))
			for i, a := range call.Arguments {
				args[i] = b.fromJS(a)
			}
			out, err := t.Invoke(args...)
			if err != nil {
				panic(b.rt.NewGoError(err))
			}
			return b.toJS(out)
		})
		return b.remember(v, fn.(*goja.Object))
	case *value.Regexp:
		re, err := b.rt.New(b.regexpFn, b.rt.ToValue(t.Source), b.rt.ToValue(t.Flags))
		if err != nil {
			panic(err)
		}
		return b.remember(v, re)
	case value.Bag:
		return b.remember(v, b.rt.NewDynamicObject(&bagObject{b: b, bag: t}))
	}
	return b.rt.ToValue(v)
}

// fromJS converts a runtime value to the internal/value model.
func (b *bridge) fromJS(v goja.Value) any {
	return b.convert(v, make(map[*goja.Object]any))
}

func (b *bridge) convert(v goja.Value, seen map[*goja.Object]any) any {
	switch {
	case v == nil || goja.IsUndefined(v):
		return value.Undefined
	case goja.IsNull(v):
		return nil
	}
	o, ok := v.(*goja.Object)
	if !ok {
		switch t := v.Export().(type) {
		case string, bool, float64:
			return t
		case int64:
			return float64(t)
		case *big.Int:
			f, _ := new(big.Float).SetInt(t).Float64()
			return f
		}
		return v.String()
	}
	if known, ok := b.fromRT[o]; ok {
		return known
	}
	if done, ok := seen[o]; ok {
		return done
	}
	if call, ok := goja.AssertFunction(o); ok {
		fn := b.function(o, call, goja.Undefined())
		b.remember(fn, o)
		return fn
	}
	switch o.ClassName() {
	case "RegExp":
		return &value.Regexp{Source: o.Get("source").String(), Flags: o.Get("flags").String()}
	case "Array":
		n := int(o.Get("length").ToInteger())
		out := make([]any, n)
		seen[o] = out
		for i := range out {
			out[i] = b.convert(o.Get(strconv.Itoa(i)), seen)
		}
		return out
	}
	obj := value.NewObject()
	seen[o] = obj
	list, err := b.props(goja.Undefined(), o)
	if err != nil {
		panic(err)
	}
	entries := list.(*goja.Object)
	n := int(entries.Get("length").ToInteger())
	for i := 0; i < n; i++ {
		e := entries.Get(strconv.Itoa(i)).(*goja.Object)
		key := e.Get("0").String()
		if e.Get("2").ToBoolean() {
			getter := e.Get("1").(*goja.Object)
			call, _ := goja.AssertFunction(getter)
			obj.Set(key, &value.Getter{Fn: b.function(getter, call, o)})
			continue
		}
		obj.Set(key, b.convert(e.Get("1"), seen))
	}
	return obj
}

// function wraps a runtime function, called with this bound to this.
func (b *bridge) function(o *goja.Object, call goja.Callable, this goja.Value) *value.Function {
	var name string
	if n := o.Get("name"); n != nil && !goja.IsUndefined(n) {
		name = n.String()
	}
	return &value.Function{Name: name, Call: func(args []any) (any, error) {
		in := make([]goja.Value, len(args))
		for i, a := range args {
			in[i] = b.toJS(a)
		}
		out, err := call(this, in...)
		if err != nil {
			return nil, err
		}
		return b.fromJS(out), nil
	}}
}

// bagObject exposes a value.Bag to the runtime as a dynamic object. Writes
// are accepted only by *value.Object.
type bagObject struct {
	b   *bridge
	bag value.Bag
}

func (d *bagObject) Get(key string) goja.Value {
	v, ok := d.bag.Get(key)
	if !ok {
		return nil
	}
	return d.b.toJS(v)
}

func (d *bagObject) Set(key string, v goja.Value) bool {
	obj, ok := d.bag.(*value.Object)
	if !ok {
		return false
	}
	obj.Set(key, d.b.fromJS(v))
	return true
}

func (d *bagObject) Has(key string) bool {
	_, ok := d.bag.Get(key)
	return ok
}

func (d *bagObject) Delete(key string) bool {
	if obj, ok := d.bag.(*value.Object); ok {
		obj.Delete(key)
		return true
	}
	_, ok := d.bag.Get(key)
	return !ok
}

func (d *bagObject) Keys() []string {
	if k, ok := d.bag.(interface{ Keys() []string }); ok {
		return k.Keys()
	}
	return nil
}
