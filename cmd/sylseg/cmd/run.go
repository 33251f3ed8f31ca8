// SPDX-License-Identifier: EPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/ik5/sylseg"
	"github.com/ik5/sylseg/align"
	"github.com/ik5/sylseg/config"
	"github.com/ik5/sylseg/events"
	"github.com/ik5/sylseg/onset"
	"github.com/ik5/sylseg/onset/vad"
	"github.com/ik5/sylseg/storage"
)

// newDetector builds the onset detector selected by cfg.
func newDetector(cfg *config.Config) onset.Detector {
	if cfg.Detector == config.DetectorVAD {
		return &vad.Detector{
			Mode:         cfg.VADMode,
			Rate:         vad.DefaultRate,
			FrameMs:      cfg.VADFrameMs,
			MinSilenceMs: cfg.VADMinSilenceMs,
		}
	}

	d := onset.NewSpectralFlux()
	d.FrameSize = cfg.FrameSize
	d.HopSize = cfg.HopSize
	d.Delta = cfg.Delta
	d.Wait = cfg.Wait
	d.Backtrack = cfg.Backtrack
	return d
}

// newBackend returns the external aligner when one is configured.
func newBackend(cfg *config.Config) align.Backend {
	if cfg.AlignerCommand == "" {
		return &align.ReportBackend{}
	}
	return &align.CommandBackend{
		Path:   cfg.AlignerCommand,
		Args:   cfg.AlignerArgs,
		Result: cfg.AlignerResult,
	}
}

func (a *app) controller(ctx context.Context) (*sylseg.Controller, error) {
	opts := []sylseg.Option{
		sylseg.WithSink(events.NewLogrusSink(a.logger)),
		sylseg.WithDetector(newDetector(a.cfg)),
		sylseg.WithAlignBackend(newBackend(a.cfg)),
		sylseg.WithLogFile(a.cfg.LogFile),
	}

	if a.cfg.S3Enabled() {
		pub, err := storage.NewS3Publisher(ctx, storage.S3Config{
			Bucket:          a.cfg.S3Bucket,
			Region:          a.cfg.S3Region,
			Endpoint:        a.cfg.S3Endpoint,
			AccessKeyID:     a.cfg.AWSAccessKeyID,
			SecretAccessKey: a.cfg.AWSSecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, sylseg.WithPublisher(pub, a.cfg.S3Prefix))
	}

	return sylseg.New(opts...), nil
}

// outputDir defaults to the directory of the audio file.
func outputDir(flag, audioPath string) string {
	if flag != "" {
		return flag
	}
	return filepath.Dir(audioPath)
}

func (a *app) run(ctx context.Context, w io.Writer, req sylseg.Request) error {
	ctl, err := a.controller(ctx)
	if err != nil {
		return err
	}

	out := ctl.Run(ctx, req)
	if out.Err != nil {
		return out.Err
	}

	for _, p := range out.Artifacts() {
		fmt.Fprintln(w, p)
	}
	for _, u := range out.Published {
		fmt.Fprintln(w, u)
	}
	return nil
}
