package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/docktile/internal/config"
)

func runConfig(args []string) int {
	if len(args) == 0 || isHelp(args[0]) {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  docktile config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  docktile config print [--path PATH] [--defaults]")
		fmt.Fprintln(os.Stderr, "  docktile config explain [--path PATH] <yaml.path>")
		if len(args) == 0 {
			return 2
		}
		return 0
	}

	const pathHelp = "Config file path (default: ~/.config/docktile/config.yaml)"

	switch args[0] {
	case "validate":
		fs := newFlagSet("validate", "docktile config validate [--path PATH]",
			"Load the config and its includes, then validate views, layouts and storage settings.")
		path := fs.String("path", "", pathHelp)
		if code := parse(fs, args[1:], 0, 0); code >= 0 {
			return code
		}
		res, err := loadConfig(*path)
		if err != nil {
			return fail(err)
		}
		fmt.Println("config: ok")
		for _, f := range res.Files {
			fmt.Printf("  loaded %s\n", f)
		}
		return 0

	case "print":
		fs := newFlagSet("print", "docktile config print [--path PATH] [--defaults]",
			"Print the effective configuration as YAML.")
		path := fs.String("path", "", pathHelp)
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		if code := parse(fs, args[1:], 0, 0); code >= 0 {
			return code
		}

		cfg := config.DefaultConfig()
		if !*printDefaults {
			res, err := loadConfig(*path)
			if err != nil {
				return fail(err)
			}
			cfg = res.Config
		}
		data, err := cfg.Marshal()
		if err != nil {
			return fail(err)
		}
		fmt.Print(string(data))
		return 0

	case "explain":
		fs := newFlagSet("explain", "docktile config explain [--path PATH] <yaml.path>",
			"Show a config value and where it came from.")
		path := fs.String("path", "", pathHelp)
		if code := parse(fs, args[1:], 1, 1); code >= 0 {
			return code
		}
		queryPath := fs.Arg(0)

		res, err := loadConfig(*path)
		if err != nil {
			return fail(err)
		}
		value, src, err := config.Explain(res, queryPath)
		if err != nil {
			return fail(err)
		}
		out, err := yaml.Marshal(value)
		if err != nil {
			return fail(err)
		}
		fmt.Printf("path: %s\n", queryPath)
		fmt.Printf("source: %s\n", formatSource(src))
		fmt.Printf("value:\n%s", string(out))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func formatSource(src config.Source) string {
	switch src.Kind {
	case config.SourceFile:
		if src.File == "" {
			return "file"
		}
		if src.Line > 0 {
			return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
		}
		return "file:" + src.File
	case config.SourceBuiltin:
		if src.Name != "" {
			return "builtin:" + src.Name
		}
		return "builtin"
	case config.SourceDefault:
		if src.Name != "" {
			return "default:" + src.Name
		}
		return "default"
	default:
		return string(src.Kind)
	}
}
