package main

import (
	"fmt"

	"github.com/delaneyj/metal/cmd/inspect/templates"
	"github.com/delaneyj/metal/metal"
	"github.com/delaneyj/metal/object"
)

// runDemo builds a small object graph, exercises computed properties,
// observers, listeners and destruction on it, and reports what happened.
func runDemo(opts ...metal.Option) (*templates.Snapshot, error) {
	snap := &templates.Snapshot{Title: "metal inspect"}
	record := func(format string, args ...any) {
		snap.Events = append(snap.Events, fmt.Sprintf(format, args...))
	}

	opts = append(opts, metal.WithDeprecationHandler(func(d metal.Deprecation) {
		snap.Deprecations = append(snap.Deprecations, fmt.Sprintf("%s: %s", d.ID, d.Message))
	}))
	rs := metal.NewRuntime(opts...)
	snap.Tracked = rs.TrackedProperties()

	person := object.NewPrototype(nil, "Person")
	fullName, err := rs.Computed("{first,last}", metal.Getter(func(obj *object.Object, _ string) any {
		return fmt.Sprintf("%v %v", rs.Get(obj, "first"), rs.Get(obj, "last"))
	}))
	if err != nil {
		return nil, err
	}
	if err := rs.DefineProperty(person, "fullName", fullName, nil); err != nil {
		return nil, err
	}
	nickname, err := rs.Computed("first", metal.Getter(func(obj *object.Object, _ string) any {
		return fmt.Sprintf("%v!", rs.Get(obj, "first"))
	}))
	if err != nil {
		return nil, err
	}
	if err := rs.DefineProperty(person, "nickname", nickname, nil); err != nil {
		return nil, err
	}

	greet := metal.NewHandler(func(target any, _ ...any) {
		record("%s was greeted", target.(*object.Object).Name())
	})
	if err := rs.AddListener(person, "greet", nil, greet, false); err != nil {
		return nil, err
	}

	tom := object.Create(person, map[string]any{"first": "Tom", "last": "Dale"})
	tom.SetName("tom")
	yehuda := object.Create(person, map[string]any{"first": "Yehuda", "last": "Katz"})
	yehuda.SetName("yehuda")

	changed := metal.NewHandler(func(_ any, args ...any) {
		record("%v changed on %s", args[1], args[0].(*object.Object).Name())
	})
	if err := rs.AddObserver(tom, "fullName", nil, changed); err != nil {
		return nil, err
	}
	record("tom is %v", rs.Get(tom, "fullName"))
	if _, err := rs.Set(tom, "first", "Thomas"); err != nil {
		return nil, err
	}
	record("tom is now %v", rs.Get(tom, "fullName"))

	rs.SendEvent(tom, "greet")
	if err := rs.RemoveAllListeners(yehuda, "greet"); err != nil {
		return nil, err
	}
	if !rs.SendEvent(yehuda, "greet") {
		record("yehuda ignores greetings")
	}

	rs.Get(yehuda, "nickname")
	if _, err := rs.Set(yehuda, "nickname", "wycats"); err != nil {
		return nil, err
	}

	todo := func(title string) *object.Object {
		t := object.Create(nil, map[string]any{"title": title, "done": false})
		t.SetName(title)
		return t
	}
	write, ship := todo("write"), todo("ship")
	list := object.Create(nil, map[string]any{"items": []*object.Object{write, ship}})
	list.SetName("todos")
	remaining, err := rs.Computed("items.@each.done", metal.Getter(func(obj *object.Object, _ string) any {
		count := 0
		items, _ := rs.Get(obj, "items").([]*object.Object)
		for _, item := range items {
			if done, _ := rs.Get(item, "done").(bool); !done {
				count++
			}
		}
		return count
	}))
	if err != nil {
		return nil, err
	}
	if err := rs.DefineProperty(list, "remaining", remaining, nil); err != nil {
		return nil, err
	}
	record("%v todos remaining", rs.Get(list, "remaining"))
	if _, err := rs.Set(write, "done", true); err != nil {
		return nil, err
	}
	record("%v todos remaining", rs.Get(list, "remaining"))

	rs.ChangeProperties(func() {
		for _, first := range []string{"T", "To", "Tommy"} {
			if _, err = rs.Set(tom, "first", first); err != nil {
				return
			}
		}
	})
	if err != nil {
		return nil, err
	}

	rs.Destroy(yehuda)
	if _, err := rs.Set(yehuda, "first", "Y"); err != nil {
		record("set after destroy: %v", err)
	}

	for _, obj := range []*object.Object{tom, yehuda, list} {
		snap.Objects = append(snap.Objects, viewOf(rs, obj))
	}
	for _, c := range rs.Store().Counters().Named() {
		snap.Counters = append(snap.Counters, templates.CounterView{Name: c.Name, Value: c.Value})
	}
	return snap, nil
}

func viewOf(rs *metal.Runtime, obj *object.Object) templates.ObjectView {
	view := templates.ObjectView{Name: obj.Name(), Destroyed: rs.IsDestroyed(obj)}

	seen := map[string]bool{}
	if m := rs.PeekMeta(obj); m != nil {
		m.ForEachDescriptors(func(key string, desc any) {
			seen[key] = true
			kind := "descriptor"
			var value any
			switch desc.(type) {
			case *metal.ComputedProperty:
				kind = "computed"
				v, ok := rs.CachedValueFor(obj, key)
				if !ok {
					view.Properties = append(view.Properties, templates.PropertyView{Key: key, Kind: kind, Value: "<not cached>"})
					return
				}
				value = v
			case *metal.TrackedProperty:
				kind = "tracked"
				value = rs.Get(obj, key)
			default:
				value = rs.Get(obj, key)
			}
			view.Properties = append(view.Properties, templates.PropertyView{Key: key, Kind: kind, Value: object.Inspect(value)})
		})
	}
	for _, key := range obj.OwnKeys() {
		if seen[key] {
			continue
		}
		v, _ := obj.GetOwn(key)
		view.Properties = append(view.Properties, templates.PropertyView{Key: key, Kind: "plain", Value: object.Inspect(v)})
	}
	return view
}
