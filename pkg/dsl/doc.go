/*
Package dsl builds Arbor projects in Go instead of YAML source files.

The builders produce the same ast.File values the parser yields, so a
project assembled here compiles and runs exactly like one read from disk.

Example usage:

	b := dsl.New()

	b.File("lib.yaml").
		Action("open_door").
		Define(ast.Sequence, "enter").Do(
			dsl.Call("open_door"),
			dsl.Call("log", dsl.Arg("inside")),
		)

	b.File("main.yaml").
		Import(project.StdFile).
		Import("lib.yaml", "enter").
		Root("main", dsl.Retry(3, dsl.Call("enter")))

	files, err := b.Build()
	// ... pass files to arbor.New("", arbor.WithFiles(files...))
*/
package dsl
