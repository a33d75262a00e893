// Command profiler drives home map loads and queries under pprof.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // pprof endpoint is opt-in via --pprof-addr
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"time"

	"github.com/felixge/fgprof"
	"github.com/spf13/pflag"

	"github.com/meigma/homemap"
	"github.com/meigma/homemap/source"
	"github.com/meigma/homemap/source/cache/disk"
)

type config struct {
	mode        string
	files       int
	dirCount    int
	previewSize int
	partSize    int
	prefix      string
	duration    time.Duration
	iterations  int
	randomSeed  int64
	readRandom  bool
	cacheDir    string
	tempDir     string
	keepTemp    bool
	pprofAddr   string
	cpuProfile  string
	memProfile  string
	traceFile   string
	fgProfile   string
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	if cfg.pprofAddr != "" {
		go func() {
			log.Printf("pprof listening on %s", cfg.pprofAddr)
			//nolint:gosec // intentional pprof server without timeouts for profiling
			if err := http.ListenAndServe(cfg.pprofAddr, nil); err != nil {
				log.Printf("pprof server error: %v", err)
			}
		}()
	}

	dir, cleanup, err := setupTempDir(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if cleanup != nil {
		defer cleanup() //nolint:errcheck // cleanup errors are non-fatal in profiler
	}

	ds, err := makeDataset(cfg.files, cfg.dirCount, cfg.previewSize, cfg.randomSeed)
	if err != nil {
		log.Fatal(err) //nolint:gocritic // exitAfterDefer is intentional - cleanup is best-effort
	}
	stores := source.DefaultStores()
	if err := ds.write(dir, stores, cfg.partSize); err != nil {
		log.Fatal(err)
	}

	stop, err := startProfiles(cfg)
	if err != nil {
		log.Fatal(err)
	}

	stats, runErr := runProfile(context.Background(), cfg, ds, dir, stores)
	stop()
	if runErr != nil {
		log.Fatal(runErr)
	}

	if cfg.memProfile != "" {
		runtime.GC()
		f, err := os.Create(cfg.memProfile)
		if err != nil {
			log.Fatal(err)
		}
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal(err)
		}
		_ = f.Close()
	}

	fmt.Printf("mode=%s ops=%d bytes=%d elapsed=%s ops/s=%.0f\n",
		cfg.mode,
		stats.ops,
		stats.bytes,
		stats.elapsed,
		float64(stats.ops)/stats.elapsed.Seconds(),
	)
}

// startProfiles starts the requested CPU, trace and wall clock profiles and
// returns a function that stops them all.
func startProfiles(cfg config) (func(), error) {
	var stops []func()
	stopAll := func() {
		for i := len(stops) - 1; i >= 0; i-- {
			stops[i]()
		}
	}

	if cfg.fgProfile != "" {
		f, err := os.Create(cfg.fgProfile)
		if err != nil {
			return nil, err
		}
		stopFG := fgprof.Start(f, fgprof.FormatPprof)
		stops = append(stops, func() {
			if err := stopFG(); err != nil {
				log.Printf("fgprof stop error: %v", err)
			}
			_ = f.Close()
		})
	}

	if cfg.cpuProfile != "" {
		f, err := os.Create(cfg.cpuProfile)
		if err != nil {
			stopAll()
			return nil, err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			stopAll()
			return nil, err
		}
		stops = append(stops, func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		})
	}

	if cfg.traceFile != "" {
		f, err := os.Create(cfg.traceFile)
		if err != nil {
			stopAll()
			return nil, err
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			stopAll()
			return nil, err
		}
		stops = append(stops, func() {
			trace.Stop()
			_ = f.Close()
		})
	}

	return stopAll, nil
}

type profileStats struct {
	ops     int
	bytes   int64
	elapsed time.Duration
}

//nolint:gocognit,gocyclo,gocritic // complexity is inherent to multi-mode profiler dispatch
func runProfile(ctx context.Context, cfg config, ds *dataset, dir string, stores source.Stores) (profileStats, error) {
	fetcher := source.NewDir(dir)
	var loaderOpts []source.LoaderOption
	if cfg.cacheDir != "" {
		cache, err := disk.New(cfg.cacheDir)
		if err != nil {
			return profileStats{}, err
		}
		loaderOpts = append(loaderOpts, source.WithCache(cache))
	}

	reg := homemap.NewRegistry()
	if err := source.NewLoader(fetcher, loaderOpts...).LoadInto(ctx, reg, stores); err != nil {
		return profileStats{}, err
	}
	engine := homemap.New(reg)

	rng := rand.New(rand.NewSource(cfg.randomSeed)) //nolint:gosec // deterministic profiling
	start := time.Now()
	deadline := start.Add(cfg.duration)
	ops := 0
	var byteCount int64
	shouldContinue := func() bool {
		if cfg.iterations > 0 {
			return ops < cfg.iterations
		}
		return time.Now().Before(deadline)
	}

	switch cfg.mode {
	case "lookup":
		for shouldContinue() {
			p := pickPath(ds.paths, ops, rng, cfg.readRandom)
			if _, ok, err := engine.Lookup(p); err != nil {
				return profileStats{}, err
			} else if !ok {
				return profileStats{}, fmt.Errorf("lookup %s: not found", p)
			}
			byteCount += int64(len(p))
			ops++
		}

	case "stat":
		for shouldContinue() {
			p := pickPath(ds.paths, ops, rng, cfg.readRandom)
			tag, ok, err := engine.Stat(p)
			if err != nil {
				return profileStats{}, err
			}
			if !ok {
				return profileStats{}, fmt.Errorf("stat %s: not found", p)
			}
			byteCount += int64(len(tag.Mime))
			ops++
		}

	case "preview":
		buf := make([]byte, cfg.previewSize)
		for shouldContinue() {
			p := pickPath(ds.paths, ops, rng, cfg.readRandom)
			off, err := engine.LookupOffset(p)
			if err != nil {
				return profileStats{}, err
			}
			n, err := engine.PreviewInto(buf, off)
			if err != nil {
				return profileStats{}, err
			}
			byteCount += int64(n)
			ops++
		}

	case "count-prefix":
		for shouldContinue() {
			n, err := engine.CountPrefix(cfg.prefix)
			if err != nil {
				return profileStats{}, err
			}
			byteCount += int64(n)
			ops++
		}

	case "list-prefix":
		for shouldContinue() {
			names, err := engine.ListPrefix(cfg.prefix)
			if err != nil {
				return profileStats{}, err
			}
			byteCount += int64(len(names))
			ops++
		}

	case "read-dir":
		for shouldContinue() {
			entries, err := engine.ReadDir(cfg.prefix)
			if err != nil {
				return profileStats{}, err
			}
			byteCount += int64(len(entries))
			ops++
		}

	case "load":
		for shouldContinue() {
			// A fresh loader per pass so singleflight never shares results
			// across iterations.
			loader := source.NewLoader(fetcher, loaderOpts...)
			fresh := homemap.NewRegistry()
			if err := loader.LoadInto(ctx, fresh, stores); err != nil {
				return profileStats{}, err
			}
			byteCount += int64(fresh.Len(homemap.KindMap) + fresh.Len(homemap.KindTags) + fresh.Len(homemap.KindIndex))
			ops++
		}

	default:
		return profileStats{}, fmt.Errorf("unknown mode: %s", cfg.mode)
	}

	return profileStats{
		ops:     ops,
		bytes:   byteCount,
		elapsed: time.Since(start),
	}, nil
}

func parseFlags(args []string) (config, error) {
	var cfg config
	fs := pflag.NewFlagSet("profiler", pflag.ContinueOnError)
	fs.StringVar(&cfg.mode, "mode", "lookup", "mode: lookup, stat, preview, count-prefix, list-prefix, read-dir, load")
	fs.IntVar(&cfg.files, "files", 100_000, "number of files")
	fs.IntVar(&cfg.dirCount, "dir-count", 16, "number of top-level directories")
	fs.IntVar(&cfg.previewSize, "preview-size", homemap.DefaultPreviewBytes, "preview bytes per file")
	fs.IntVar(&cfg.partSize, "part-size", 0, "split stores into zstd parts of this many bytes (0 writes whole files)")
	fs.StringVar(&cfg.prefix, "prefix", "dir00", "prefix for count-prefix, list-prefix and read-dir modes")
	fs.DurationVar(&cfg.duration, "duration", 10*time.Second, "duration to run (ignored if iterations > 0)")
	fs.IntVar(&cfg.iterations, "iterations", 0, "number of iterations to run")
	fs.Int64Var(&cfg.randomSeed, "seed", 1, "random seed")
	fs.BoolVar(&cfg.readRandom, "read-random", true, "randomize path selection")
	fs.StringVar(&cfg.cacheDir, "cache-dir", "", "part cache directory")
	fs.StringVar(&cfg.tempDir, "temp-dir", "", "directory to use for dataset")
	fs.BoolVar(&cfg.keepTemp, "keep-temp", false, "keep temp dir after run")
	fs.StringVar(&cfg.pprofAddr, "pprof-addr", "", "pprof listen address (e.g. :6060)")
	fs.StringVar(&cfg.cpuProfile, "cpuprofile", "", "write CPU profile to file")
	fs.StringVar(&cfg.memProfile, "memprofile", "", "write heap profile to file")
	fs.StringVar(&cfg.traceFile, "trace", "", "write trace to file")
	fs.StringVar(&cfg.fgProfile, "fgprofile", "", "write fgprof (wall clock) profile to file")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if cfg.previewSize < 0 {
		return config{}, errors.New("preview-size must not be negative")
	}
	return cfg, nil
}

func pickPath(paths []string, idx int, rng *rand.Rand, random bool) string {
	if random {
		return paths[rng.Intn(len(paths))]
	}
	return paths[idx%len(paths)]
}

//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func setupTempDir(cfg config) (string, func() error, error) {
	if cfg.tempDir != "" {
		return cfg.tempDir, nil, os.MkdirAll(cfg.tempDir, 0o755) //nolint:gosec // 0o755 is intentional for profiler temp dirs
	}
	dir, err := os.MkdirTemp("", "homemap-profile-*")
	if err != nil {
		return "", nil, err
	}
	if cfg.keepTemp {
		log.Printf("dataset in %s", dir)
		return dir, nil, nil
	}
	return dir, func() error { return os.RemoveAll(dir) }, nil
}
