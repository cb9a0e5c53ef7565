package main

import (
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"

	"splice-cli/internal/cli"
)

const clipIDMarker = "::clip::"

func isClipID(s string) bool {
	s = strings.TrimSpace(s)
	i := strings.Index(s, clipIDMarker)
	return i > 0 && len(s) > i+len(clipIDMarker)
}

func rewriteDirectClipLookupArgs(argv []string) []string {
	// Convenience: `splice <clip-id>` works like `splice clips show <clip-id>`.
	//
	// Cobra treats the first non-flag token as a subcommand, so argv is rewritten
	// before parsing. Persistent flags may come first (`splice --dir x <clip-id>`),
	// so look for the first positional token rather than argv[1].
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--dir":    true,
		"--scope":  true,
		"--config": true,
		"--format": true,
	}
	boolFlags := map[string]bool{
		"--pretty": true,
	}

	insert := func(i int) []string {
		out := make([]string, 0, len(argv)+2)
		out = append(out, argv[:i]...)
		out = append(out, "clips", "show")
		return append(out, argv[i:]...)
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isClipID(argv[i+1]) {
				return insert(i + 1)
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if strings.Contains(a, "=") || boolFlags[a] {
				continue
			}
			if valueFlags[a] {
				i++
			}
			continue
		}
		if isClipID(a) {
			return insert(i)
		}
		return argv
	}

	return argv
}

func main() {
	os.Args = rewriteDirectClipLookupArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
