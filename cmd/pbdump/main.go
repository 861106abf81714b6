package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/wippyai/protobind/schema"
	"go.uber.org/zap"
	"golang.org/x/term"
)

func main() {
	var (
		schemaFile  = flag.String("schema", "", "Path to a serialized FileDescriptorSet")
		single      = flag.Bool("single", false, "Schema file holds one FileDescriptorProto")
		message     = flag.String("message", "", "Message to decode the payload as")
		payloadFile = flag.String("payload", "", "Path to a binary payload (- for stdin)")
		list        = flag.Bool("list", false, "List messages and exit")
		asJSON      = flag.Bool("json", false, "Print the payload as JSON")
		verbose     = flag.Bool("v", false, "Log registration details")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *schemaFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: pbdump -schema <set.pb> -list")
		fmt.Fprintln(os.Stderr, "       pbdump -schema <set.pb> -message <name> -payload <file> [-json]")
		fmt.Fprintln(os.Stderr, "       pbdump -schema <set.pb> [-payload <file>] -i  (interactive mode)")
		os.Exit(1)
	}

	logger := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		logger = l
	}
	defer logger.Sync()

	pool, err := loadSchema(*schemaFile, *single, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var payload []byte
	if *payloadFile != "" {
		if payload, err = readPayload(*payloadFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(pool, *schemaFile, payload); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(os.Stdout, pool, *message, payload, *list, *asJSON); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadSchema(path string, single bool, logger *zap.Logger) (*schema.Pool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}

	reg := schema.NewRegistry(schema.Options{Logger: logger})
	pool := reg.Pool(schema.DefaultPool)
	if single {
		if err := pool.RegisterDescriptor(data); err != nil {
			return nil, fmt.Errorf("register: %w", err)
		}
		return pool, nil
	}
	if _, err := pool.RegisterDescriptorSet(data); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return pool, nil
}

func readPayload(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return data, nil
}

func run(w io.Writer, pool *schema.Pool, message string, payload []byte, listOnly, asJSON bool) error {
	fmt.Fprintf(w, "Files: %d\n", pool.Files())
	fmt.Fprintf(w, "Messages: %d\n", len(pool.Messages()))

	if listOnly || message == "" {
		fmt.Fprintln(w)
		listMessages(w, pool)
		return nil
	}

	md, ok := pool.FindMessage(message)
	if !ok {
		return fmt.Errorf("message %q not found", message)
	}
	if payload == nil {
		fmt.Fprintln(w)
		describeMessage(w, md)
		return nil
	}

	fmt.Fprintf(w, "\n%s (%d bytes):\n", md.FullName(), len(payload))
	if asJSON {
		out, err := payloadJSON(md, payload)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, out)
		return nil
	}
	return dumpPayload(w, md, payload)
}
