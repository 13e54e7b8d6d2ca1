package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/delaneyj/metal/metal"
	"github.com/delaneyj/metal/object"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
)

var (
	profile = flag.String("pgo", "", "write a CPU profile to this file")
	tracked = flag.Bool("tracked", false, "enable tracked properties")
)

func main() {
	flag.Parse()

	if *profile != "" {
		f, err := os.Create(*profile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	log.Printf("warming up")

	benchmarkPropagate(false)
	benchmarkPropagate(true)
	benchmarkDispatch(true)
}

var (
	ww    = []int{1, 10, 100}
	hh    = []int{1, 10, 100}
	depth = []int{1, 4, 16, 64}
	iters = 100
)

func newTable(title string) table.Writer {
	tbl := table.NewWriter()
	tbl.SetTitle(title)
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})
	return tbl
}

func appendCalc(tbl table.Writer, name string, tach *tachymeter.Tachymeter) {
	calc := tach.Calc()
	tbl.AppendRows([]table.Row{
		{
			name,
			calc.Time.Avg,
			calc.Time.Min,
			calc.Time.P75,
			calc.Time.P99,
			calc.Time.Max,
		},
	})
}

// benchmarkPropagate builds w chains of h computed properties, each reading
// the previous link through a path, and times a source write followed by
// reading every chain's tail.
func benchmarkPropagate(shouldRender bool) {
	tbl := newTable("Computed propagation")

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			rs := metal.NewRuntime(metal.WithTrackedProperties(*tracked))
			src := object.Create(nil, map[string]any{"value": 1})

			link, err := rs.Computed("prev.value", metal.Getter(func(obj *object.Object, _ string) any {
				v, _ := rs.Get(obj, "prev.value").(int)
				return v + 1
			}))
			if err != nil {
				log.Fatal(err)
			}
			proto := object.NewPrototype(nil, "Link")
			if err := rs.DefineProperty(proto, "value", link, nil); err != nil {
				log.Fatal(err)
			}

			tails := make([]*object.Object, 0, w)
			for i := 0; i < w; i++ {
				last := src
				for j := 0; j < h; j++ {
					last = object.Create(proto, map[string]any{"prev": last})
				}
				tails = append(tails, last)
				rs.Get(last, "value")
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				if _, err := rs.Set(src, "value", i+2); err != nil {
					log.Fatal(err)
				}
				for _, tail := range tails {
					rs.Get(tail, "value")
				}
				tach.AddTime(time.Since(start))
			}

			appendCalc(tbl, fmt.Sprintf("propagate: %d * %d", w, h), tach)
		}
	}

	if shouldRender {
		tbl.Render()
	}
}

// benchmarkDispatch times sending an event to an instance whose listeners
// are spread over a prototype chain, with the chain reopened between sends
// so every send has to flatten again.
func benchmarkDispatch(shouldRender bool) {
	tbl := newTable("Listener dispatch")

	for _, d := range depth {
		tach := tachymeter.New(&tachymeter.Config{Size: iters})
		rs := metal.NewRuntime()

		var proto *object.Object
		for i := 0; i < d; i++ {
			proto = object.NewPrototype(proto, fmt.Sprintf("Level%d", i))
			h := metal.NewHandler(func(any, ...any) {})
			if err := rs.AddListener(proto, "ping", nil, h, false); err != nil {
				log.Fatal(err)
			}
		}
		inst := object.New(proto)

		for i := 0; i < iters; i++ {
			h := metal.NewHandler(func(any, ...any) {})
			if err := rs.AddListener(proto, "ping", nil, h, false); err != nil {
				log.Fatal(err)
			}
			start := time.Now()
			rs.SendEvent(inst, "ping")
			tach.AddTime(time.Since(start))
		}

		appendCalc(tbl, fmt.Sprintf("dispatch: depth %d", d), tach)
	}

	if shouldRender {
		tbl.Render()
	}
}
