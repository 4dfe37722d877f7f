package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/tag-tracker/internal/config"
	"github.com/ironsheep/tag-tracker/internal/logging"
	"github.com/ironsheep/tag-tracker/internal/metrics"
	"github.com/ironsheep/tag-tracker/internal/server"
	"github.com/ironsheep/tag-tracker/internal/tracking"
)

// Version information - set by ldflags during build
var (
	Version   = server.Version
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// configEnv names the variable holding an optional config file path.
const configEnv = config.EnvPrefix + "_CONFIG"

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "--version", "-v", "version":
		fmt.Printf("tag-tracker %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	case "--help", "-h", "help":
		usage()
		return
	}

	cfg, err := config.Load(os.Getenv(configEnv))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})

	switch cmd {
	case "serve":
		logger.WithFields(logrus.Fields{"version": Version, "commit": GitCommit}).Debug("starting MCP server")
		if err := server.New(cfg, logger).Run(); err != nil {
			logger.WithError(err).Fatal("server error")
		}
	case "analyze":
		if len(os.Args) < 3 {
			usage()
			os.Exit(2)
		}
		limit := 0
		if len(os.Args) > 3 {
			if limit, err = strconv.Atoi(os.Args[3]); err != nil {
				logger.WithError(err).Fatal("invalid frame limit")
			}
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		res, err := analyze(ctx, cfg, logger, os.Args[2], limit)
		stop()
		if err != nil {
			logger.WithError(err).Fatal("analysis failed")
		}
		fmt.Printf("%s: %d frames processed, %d flagged for review\n", res.ReportPath, res.Processed, res.Halts)
		fmt.Printf("  walking distance: %d\n", int(res.Report.WalkingDistance))
		fmt.Printf("  head movement:    %d\n", int(res.Report.HeadMovement))
	case "report":
		if len(os.Args) < 3 {
			usage()
			os.Exit(2)
		}
		if err := rebuildReport(cfg, logger, os.Args[2]); err != nil {
			logger.WithError(err).Fatal("report failed")
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage()
		os.Exit(2)
	}
}

// analyzeResult summarizes an unattended run.
type analyzeResult struct {
	ReportPath string
	Processed  int
	Halts      int
	Report     metrics.Report
}

// analyze runs continuous analysis over dir without a reviewer. Frames that
// halt the run are left as detected and analysis resumes on the next one.
// limit caps the total number of frames processed across halts; 0 or less
// means no cap.
func analyze(ctx context.Context, cfg *config.Config, logger *logrus.Logger, dir string, limit int) (analyzeResult, error) {
	var res analyzeResult

	sess, err := tracking.Open(dir, cfg, tracking.WithLogger(logger))
	if err != nil {
		return res, err
	}
	res.ReportPath = sess.ReportPath()
	an := tracking.NewAnalyzer(sess)

	for {
		remaining := 0
		if limit > 0 {
			if res.Processed >= limit {
				break
			}
			remaining = limit - res.Processed
		}
		sum, err := an.Run(ctx, remaining)
		res.Processed += sum.Processed
		if err != nil {
			return res, errors.Join(err, sess.Close(false))
		}

		reason := sum.Outcome.Reason
		if reason == tracking.ReasonTagUnresolved || reason == tracking.ReasonDetectionFailed {
			res.Halts++
			logger.WithFields(logrus.Fields{
				logging.FrameKey: sum.End,
				"reason":         reason,
			}).Warn("frame needs review")
			if sum.End < sess.FrameCount {
				continue
			}
		}
		break
	}

	res.Report, err = sess.Save()
	if err != nil {
		return res, errors.Join(err, sess.Close(false))
	}
	return res, sess.Close(false)
}

// rebuildReport recomputes the report of a previously saved session from its
// records without running detection past frame 1.
func rebuildReport(cfg *config.Config, logger *logrus.Logger, dir string) error {
	sess, err := tracking.Open(dir, cfg, tracking.WithLogger(logger))
	if err != nil {
		return err
	}
	if !sess.Status().Resumed {
		logger.WithField("path", sess.ReportPath()).Warn("no saved report; only frame 1 has records")
	}
	if err := sess.Close(true); err != nil {
		return err
	}
	fmt.Println(sess.ReportPath())
	return nil
}

func usage() {
	fmt.Println("tag-tracker - head and tail-base tag tracker")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  tag-tracker [serve]             MCP server over stdin/stdout")
	fmt.Println("  tag-tracker analyze <dir> [n]   Unattended analysis, saves <dir>.csv")
	fmt.Println("  tag-tracker report <dir>        Recompute <dir>.csv from saved records")
	fmt.Println("  tag-tracker version             Print version information")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Printf("  %s=<file>     Config file (yaml, json or toml)\n", configEnv)
	fmt.Printf("  %s_LOG_LEVEL=debug  Enable debug logging\n", config.EnvPrefix)
	fmt.Printf("  %s_TAGSIZE=<px>     Any config key, upper-cased\n", config.EnvPrefix)
}
