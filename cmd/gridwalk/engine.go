package main

import (
	"fmt"

	"github.com/gridwalk/gridwalk"
	"github.com/gridwalk/gridwalk/config"
	"github.com/gridwalk/gridwalk/engine/playwright"
	"github.com/gridwalk/gridwalk/engine/rod"
	"github.com/gridwalk/gridwalk/engine/seleniumwd"
	"github.com/gridwalk/gridwalk/pagespec"
)

// session is an engine bound to a live browser window.
type session struct {
	engine   gridwalk.Engine
	navigate func(url string) error
	close    func() error
}

// connectEngine opens a browser session on the engine the configuration
// names.
func connectEngine(cfg *config.Config) (*session, error) {
	switch cfg.Engine {
	case "selenium":
		if cfg.RemoteURL == "" {
			return nil, fmt.Errorf("the selenium engine needs remote_url pointing at a running WebDriver server")
		}
		s, err := seleniumwd.Open(cfg.RemoteURL, cfg.Browser, cfg.Headless)
		if err != nil {
			return nil, err
		}
		return &session{engine: s.Engine(), navigate: s.Navigate, close: s.Close}, nil
	case "playwright":
		s, err := playwright.Launch(cfg.Headless)
		if err != nil {
			return nil, err
		}
		return &session{engine: s.Engine(), navigate: s.Navigate, close: s.Close}, nil
	case "rod":
		s, err := rod.Launch(cfg.Headless)
		if err != nil {
			return nil, err
		}
		return &session{engine: s.Engine(), navigate: s.Navigate, close: s.Close}, nil
	}
	return nil, fmt.Errorf("unknown engine %q (want selenium, playwright or rod)", cfg.Engine)
}

// withTraversal loads the page spec at specPath, connects the configured
// engine, navigates to the spec's URL and hands the compiled traversal to
// fn.
func withTraversal(specPath string, fn func(*pagespec.Spec, *gridwalk.Traversal) error) error {
	spec, err := pagespec.Load(specPath)
	if err != nil {
		return err
	}
	s, err := connectEngine(cfg)
	if err != nil {
		return err
	}
	defer s.close()

	if spec.URL != "" {
		if err := s.navigate(spec.URL); err != nil {
			return err
		}
	}
	t, err := spec.Traversal(s.engine, cfg.WaitPolicy(), cfg.MaxPages)
	if err != nil {
		return err
	}
	return fn(spec, t)
}
