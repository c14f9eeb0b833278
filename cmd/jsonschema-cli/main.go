// Command jsonschema-cli compiles a schema file and evaluates it against an
// instance file, printing the formatted output document. It exists as the
// thin executable wrapper around github.com/oarkflow/json/jsonschema/v2,
// following the teacher's examples/main.go convention of swapping the JSON
// backend via json.SetMarshaler/SetUnmarshaler before doing real work. Both
// the schema and the instance are decoded through the root package's
// pluggable Unmarshal so -fast-json actually governs both, not just one of
// them.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	goccy "github.com/goccy/go-json"

	rootjson "github.com/oarkflow/json"
	v2 "github.com/oarkflow/json/jsonschema/v2"
)

func main() {
	var (
		schemaPath   = flag.String("schema", "", "path to the schema JSON file")
		instancePath = flag.String("instance", "", "path to the instance JSON file")
		format       = flag.String("format", "hierarchical", "output format: flag|basic|detailed|hierarchical")
		draft        = flag.String("draft", "", "pin the draft instead of detecting it from $schema (draft6|draft7|draft2019-09|draft2020-12|draft-next)")
		fastJSON     = flag.Bool("fast-json", false, "decode schema/instance with goccy/go-json instead of encoding/json")
	)
	flag.Parse()

	if *schemaPath == "" || *instancePath == "" {
		fmt.Fprintln(os.Stderr, "usage: jsonschema-cli -schema schema.json -instance instance.json")
		os.Exit(2)
	}

	if *fastJSON {
		rootjson.SetMarshaler(goccy.Marshal)
		rootjson.SetUnmarshaler(goccy.Unmarshal)
	}

	schemaBytes, err := os.ReadFile(*schemaPath)
	if err != nil {
		fatalf("reading schema: %v", err)
	}
	instanceBytes, err := os.ReadFile(*instancePath)
	if err != nil {
		fatalf("reading instance: %v", err)
	}

	opts := []v2.Option{v2.WithOutputFormat(outputFormat(*format))}
	if *draft != "" {
		opts = append(opts, v2.WithDraft(v2.Draft(*draft)))
	}

	var rawSchema any
	if err := rootjson.Unmarshal(schemaBytes, &rawSchema); err != nil {
		fatalf("parsing schema: %v", err)
	}
	compiled, err := v2.Compile(rawSchema, opts...)
	if err != nil {
		fatalf("compiling schema: %v", err)
	}

	var instance any
	if err := rootjson.Unmarshal(instanceBytes, &instance); err != nil {
		fatalf("parsing instance: %v", err)
	}

	out := compiled.Output(instance)
	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fatalf("encoding output: %v", err)
	}
	fmt.Println(string(encoded))

	if !out.Valid {
		os.Exit(1)
	}
}

func outputFormat(s string) v2.OutputFormat {
	switch s {
	case "flag":
		return v2.OutputFlag
	case "basic":
		return v2.OutputBasic
	case "detailed":
		return v2.OutputDetailed
	default:
		return v2.OutputHierarchical
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}
