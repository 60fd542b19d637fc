// Command build compiles slicec WebAssembly plugins with TinyGo:
//
//	go run ./internal/build -output=slicec-codegen-go.wasm ./bin/slicec-codegen-go
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

var (
	tinygo   = flag.String("tinygo", "tinygo", "")
	output   = flag.String("output", "", "")
	chdir    = flag.String("chdir", ".", "")
	goSdkBin = flag.String("go-sdk-bin", "", "")
	wasmOpt  = flag.String("wasm-opt", "", "")
	target   = flag.String("target", "wasip1", "")
)

func main() {
	flag.Parse()
	if *output == "" || flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s -output=PLUGIN.wasm [tinygo flags] PACKAGE\n", os.Args[0])
		os.Exit(1)
	}
	pwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	cmd := exec.Command(resolve(pwd, *tinygo), tinygoArgs(filepath.Join(pwd, *output), *target, flag.Args())...)
	cmd.Env = tinygoEnv(pwd)
	cmd.Dir = filepath.Join(pwd, *chdir)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// tinygoArgs builds a reactor module, so that the host can call its exports
// after `_initialize` without running `main`.
func tinygoArgs(output, target string, args []string) []string {
	out := []string{
		"build",
		"-o=" + output,
		"-target=" + target,
		"-buildmode=c-shared",
		"-no-debug",
	}
	return append(out, args...)
}

func tinygoEnv(pwd string) []string {
	env := os.Environ()
	if *goSdkBin != "" {
		env = append(env, "PATH="+filepath.Join(pwd, *goSdkBin))
	}
	if *wasmOpt != "" {
		env = append(env, "WASMOPT="+filepath.Join(pwd, *wasmOpt))
	}
	if tmp := os.Getenv("TMPDIR"); tmp != "" {
		env = append(env, "HOME="+filepath.Join(tmp, "tinygo-home"))
	}
	return env
}

// resolve treats tool paths containing a separator as relative to pwd and
// leaves bare names to $PATH.
func resolve(pwd, tool string) string {
	if filepath.IsAbs(tool) || filepath.Base(tool) == tool {
		return tool
	}
	return filepath.Join(pwd, tool)
}
