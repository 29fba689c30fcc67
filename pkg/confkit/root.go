package confkit

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/joho/godotenv"
)

const maxRootDepth = 8

var dotenvOnce sync.Once

// ProjectRoot walks upwards from this source file to the first directory
// holding go.mod or .git, falling back to the working directory.
func ProjectRoot() (string, error) {
	var root string
	walkToRoot(func(dir string) bool {
		if isRoot(dir) {
			root = dir
			return true
		}
		return false
	})
	if root != "" {
		return root, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return ".", fmt.Errorf("getwd: %w", err)
	}
	return wd, nil
}

// ProjectPath joins the repository root with rel.
func ProjectPath(rel string) (string, error) {
	root, err := ProjectRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, rel), nil
}

// MustProjectPath returns ProjectPath(rel) and panics on failure.
func MustProjectPath(rel string) string {
	p, err := ProjectPath(rel)
	if err != nil {
		panic(err)
	}
	return p
}

// LoadDotenvOnce loads .env files once per process. ENV_FILE selects a single
// file; otherwise every .env between this package and the project root is
// read. Set NO_DOTENV=1 to skip, DOTENV_OVERLOAD=1 to replace existing vars.
func LoadDotenvOnce() {
	dotenvOnce.Do(loadDotenv)
}

func loadDotenv() {
	if os.Getenv("NO_DOTENV") == "1" {
		return
	}
	load := godotenv.Load
	if os.Getenv("DOTENV_OVERLOAD") == "1" {
		load = godotenv.Overload
	}

	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		_ = load(envFile)
		return
	}
	if !walkToRoot(func(dir string) bool {
		_ = load(filepath.Join(dir, ".env"))
		return isRoot(dir)
	}) {
		_ = load(".env")
	}
}

// walkToRoot calls visit for this file's directory and each parent until
// visit returns true. It reports whether the walk ran at all.
func walkToRoot(visit func(dir string) bool) bool {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return false
	}
	dir := filepath.Dir(file)
	for i := 0; i < maxRootDepth; i++ {
		if visit(dir) {
			return true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return true
}

func isRoot(dir string) bool {
	return fileExists(filepath.Join(dir, "go.mod")) || fileExists(filepath.Join(dir, ".git"))
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
