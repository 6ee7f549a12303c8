package arbor_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/project"
)

// ExampleNew_memory runs a project held in memory with a host action.
func ExampleNew_memory() {
	loader := memory.NewLoader(map[string]string{
		"main.yaml": `
imports:
  - file: std::actions
    names: [fail]
trees:
  - type: root
    name: main
    calls:
      - lambda: fallback
        calls:
          - invoke: fail
            args: [{value: "door locked"}]
          - invoke: say
            args: [{name: text, value: "going through the window"}]
  - type: impl
    name: say
    params: [{name: text, type: string}]
`,
	})

	say := ports.ActionFunc(func(args domain.Args, _ ports.TickContext) (domain.Outcome, error) {
		text, _ := args.Find("text")
		fmt.Println(text)
		return domain.Success(), nil
	})

	engine, err := arbor.New("", arbor.WithSourceLoader(loader), arbor.WithAction("say", say))
	if err != nil {
		log.Fatal(err)
	}

	res, err := engine.Run(context.Background(), ports.RunRequest{})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Outcome, res.Ticks)
	// Output:
	// going through the window
	// success 1
}

// ExampleNew_dsl builds the project in Go instead of YAML.
func ExampleNew_dsl() {
	b := dsl.New()
	b.File("main.yaml").
		Import(project.StdFile, "inc", "equal").
		Root("main",
			dsl.Repeat(2, dsl.Call("inc", dsl.Arg("laps"))),
			dsl.Call("equal", dsl.Arg("laps"), dsl.Arg("2")),
		)

	files, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	engine, err := arbor.New("", arbor.WithFiles(files...))
	if err != nil {
		log.Fatal(err)
	}

	res, err := engine.Run(context.Background(), ports.RunRequest{})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Outcome, res.Ticks, res.Blackboard["laps"])
	// Output: success 2 2
}
