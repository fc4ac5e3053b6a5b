package main

import (
	"os"
	"os/exec"

	"github.com/goyek/goyek/v2"
)

func run(a *goyek.A, name string, args ...string) {
	a.Helper()
	a.Logf("%s %v", name, args)
	cmd := exec.CommandContext(a.Context(), name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		a.Error(err)
	}
}

var vet = goyek.Define(goyek.Task{
	Name:  "vet",
	Usage: "Run go vet on all packages",
	Action: func(a *goyek.A) {
		run(a, "go", "vet", "./...")
	},
})

var test = goyek.Define(goyek.Task{
	Name:  "test",
	Usage: "Run the tests of all packages",
	Action: func(a *goyek.A) {
		run(a, "go", "test", "-race", "./...")
	},
})

var fixtures = goyek.Define(goyek.Task{
	Name:  "fixtures",
	Usage: "Check the fixture files under testdata directories",
	Action: func(a *goyek.A) {
		for _, dir := range []string{"crawler/testdata", "casetest/testdata"} {
			run(a, "go", "run", "./cmd/donate", "check", "-d", dir)
		}
	},
})

var _ = goyek.Define(goyek.Task{
	Name:  "all",
	Usage: "Run every check",
	Deps:  goyek.Deps{vet, test, fixtures},
})

func main() {
	goyek.Main(os.Args[1:])
}
