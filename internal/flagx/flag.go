// Package flagx lets several components share os.Args without tripping over
// each other's flags: each one filters the arguments down to the flags it
// owns before handing them to its own flag.FlagSet.
package flagx

import (
	"flag"
	"strings"
)

// FilterArgs returns the subset of args made of allowed flags and their values.
//
// Both "-flag value" and "-flag=value" forms are recognized. A separate value
// is only taken when the next argument does not itself start with "-".
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, found := strings.Cut(arg, "="); found && strings.HasPrefix(arg, "-") {
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// ConfigFiles holds the paths of optional configuration sources named on the
// command line.
type ConfigFiles struct {
	// JSON is the JSON config file given with -c or -config.
	JSON string
	// Env is the dotenv file given with -env. Empty means ".env" is tried.
	Env string
}

// ConfigFileFlags extracts -c/-config and -env from args (usually os.Args[1:]).
// Other arguments are ignored.
func ConfigFileFlags(args []string) ConfigFiles {
	var files ConfigFiles

	filtered := FilterArgs(args, []string{"-c", "-config", "-env"})

	fs := flag.NewFlagSet("config-files", flag.ContinueOnError)
	fs.StringVar(&files.JSON, "config", "", "path to JSON config file")
	fs.StringVar(&files.JSON, "c", "", "path to JSON config file (short)")
	fs.StringVar(&files.Env, "env", "", "path to dotenv file")
	_ = fs.Parse(filtered)

	return files
}
