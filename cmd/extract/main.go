package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/celerix-dev/celerix-extract/internal/config"
	"github.com/celerix-dev/celerix-extract/internal/engine"
	"github.com/celerix-dev/celerix-extract/internal/layout"
	"github.com/celerix-dev/celerix-extract/internal/logger"
	"github.com/celerix-dev/celerix-extract/pkg/cpf"
	"github.com/celerix-dev/celerix-extract/pkg/flatten"
	"github.com/celerix-dev/celerix-extract/pkg/sdk"
	"github.com/tidwall/gjson"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		return
	}

	cfg := config.FromEnv()
	slog.SetDefault(logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat))

	l, err := cfg.Layout()
	if err != nil {
		log.Fatalf("Failed to load layout: %v", err)
	}

	command := strings.ToLower(os.Args[1])
	args := os.Args[2:]

	switch command {
	case "json":
		if len(args) < 1 {
			log.Fatal("Usage: extract json <file.json> [outdir]")
		}
		ex := connect(cfg, l)
		defer closeExtractor(ex)
		report, err := ex.ExtractJSON(args[0], outDir(args))
		if err != nil {
			fail(err)
		}
		fmt.Println(report.Message)

	case "cpf":
		if len(args) < 1 {
			log.Fatal("Usage: extract cpf <file.xml> [outdir]")
		}
		ex := connect(cfg, l)
		defer closeExtractor(ex)
		report, err := ex.CountCPFs(args[0], outDir(args))
		if err != nil {
			fail(err)
		}
		fmt.Println(report.Message)

	case "validate":
		if len(args) < 1 {
			log.Fatal("Usage: extract validate <cpf>...")
		}
		ex := connect(cfg, l)
		defer closeExtractor(ex)
		allValid := true
		for _, v := range args {
			ok, err := ex.ValidateCPF(v)
			if err != nil {
				log.Fatal(err)
			}
			if ok {
				fmt.Printf("%s\tvalid\t%s\n", v, cpf.Format(v))
			} else {
				allValid = false
				fmt.Printf("%s\tinvalid\n", v)
			}
		}
		if !allValid {
			os.Exit(1)
		}

	case "flatten":
		if len(args) < 1 {
			log.Fatal("Usage: extract flatten <file.json>")
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			log.Fatal(err)
		}
		if !gjson.ValidBytes(data) {
			fail(engine.ErrInvalidJSON)
		}
		printJSON(flatten.Flatten(gjson.ParseBytes(data), l.Separator))

	case "layout":
		out, err := l.Marshal()
		if err != nil {
			log.Fatal(err)
		}
		os.Stdout.Write(out)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(2)
	}
}

// connect picks the daemon when EXTRACT_ADDR is set and reachable, or the
// embedded engine otherwise.
func connect(cfg config.Config, l layout.Layout) sdk.Extractor {
	return sdk.New(sdk.Options{
		Addr:       cfg.RemoteAddr,
		TCPAddr:    cfg.RemoteTCPAddr,
		DisableTLS: cfg.DisableTLS,
		Layout:     l,
		CPF:        cfg.CPFOptions(),
	})
}

func closeExtractor(ex sdk.Extractor) {
	if c, ok := ex.(io.Closer); ok {
		c.Close()
	}
}

func outDir(args []string) string {
	if len(args) > 1 {
		return args[1]
	}
	return "."
}

// fail prints the pipeline message and exits non-zero.
func fail(err error) {
	fmt.Fprintln(os.Stderr, engine.Message(err))
	os.Exit(1)
}

func printUsage() {
	fmt.Println("Extract CLI - JSON workbooks and CPF counts")
	fmt.Println("\nUsage:")
	fmt.Println("  extract json <file.json> [outdir]   Write resultado_json.xlsx")
	fmt.Println("  extract cpf <file.xml> [outdir]     Write resultado_cpfs.csv")
	fmt.Println("  extract validate <cpf>...           Check CPF numbers")
	fmt.Println("  extract flatten <file.json>         Print flattened key/value pairs")
	fmt.Println("  extract layout                      Print the active table layout")
	fmt.Println("\nEnvironment Variables:")
	fmt.Println("  EXTRACT_ADDR          HTTP address of an extractd daemon (default: run embedded)")
	fmt.Println("  EXTRACT_TCP_ADDR      TCP address of the daemon, used for CPF checks")
	fmt.Println("  EXTRACT_DISABLE_TLS   Set to true to disable TLS on the TCP connection")
	fmt.Println("  EXTRACT_LAYOUT        YAML layout file for the JSON workbook")
	fmt.Println("  EXTRACT_CPF_ELEMENT   XML element holding CPFs (default: Cli)")
	fmt.Println("  EXTRACT_CPF_ATTR      XML attribute holding CPFs (default: Cd)")
}

func printJSON(v any) {
	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(v)
		return
	}
	fmt.Println(string(bytes))
}
