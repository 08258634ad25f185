package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dshills/innermost/internal/ctxlog"
	"github.com/dshills/innermost/internal/extension"
	"github.com/dshills/innermost/internal/point"
	"github.com/dshills/innermost/internal/registry"
)

// Package is one discovery entry.
type Package struct {
	Path string
	// Name is the suggested identity prefix; optional.
	Name string
}

// Failure is one caught composition error. Point is empty for load and
// identity failures, which exclude the whole module.
type Failure struct {
	Path      string
	Extension string
	Point     point.Kind
	Err       error
}

func (f Failure) Error() string {
	switch {
	case f.Point != "":
		return fmt.Sprintf("%s (%s) %s: %v", f.Path, f.Extension, f.Point, f.Err)
	case f.Extension != "":
		return fmt.Sprintf("%s (%s): %v", f.Path, f.Extension, f.Err)
	default:
		return fmt.Sprintf("%s: %v", f.Path, f.Err)
	}
}

func (f Failure) Unwrap() error { return f.Err }

// ModuleReport summarizes one composed module.
type ModuleReport struct {
	Path      string
	Extension string
	Disabled  bool
	// Points lists the extension points that produced a registry record.
	Points []point.Kind
}

// Report is the outcome of a composition pass.
type Report struct {
	Modules  []ModuleReport
	Failures []Failure
	// Warnings are non-fatal registry conditions such as a demoted default body.
	Warnings []error
}

// Err joins every failure, or returns nil.
func (r *Report) Err() error {
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Compose loads every package in order and feeds each module's contributions
// into the registries: icon, menu, body, options, settings. Module and
// factory failures are logged and recorded in the report; they never stop
// the pass. The returned error reports only a failed identity flush.
func (r *Runtime) Compose(ctx context.Context, packages []Package) (*Report, error) {
	log := ctxlog.FromContext(ctx)
	report := &Report{}

	for _, pkg := range packages {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		r.composeOne(ctx, log, pkg, report)
	}

	if err := r.identities.Flush(); err != nil {
		log.Error("persist identities", slog.Any("err", err))
		return report, fmt.Errorf("flush identities: %w", err)
	}
	return report, nil
}

func (r *Runtime) composeOne(ctx context.Context, log *slog.Logger, pkg Package, report *Report) {
	log = log.With(slog.String("path", pkg.Path))

	mod, err := r.loader.Load(ctx, pkg.Path)
	if err != nil {
		log.Warn("load extension", slog.Any("err", err))
		report.Failures = append(report.Failures, Failure{Path: pkg.Path, Err: err})
		return
	}

	name, err := r.identities.Resolve(mod.Path(), pkg.Name, mod.Name())
	if err != nil {
		log.Warn("resolve identity", slog.Any("err", err))
		report.Failures = append(report.Failures, Failure{Path: pkg.Path, Err: err})
		_ = mod.Close()
		return
	}
	log = log.With(slog.String("extension", name))

	surface := newSurface(r, name, firstNonEmpty(pkg.Name, mod.Name()))
	r.loadCatalogs(log, mod, surface.Namespace(), report)
	r.mu.Lock()
	r.modules = append(r.modules, mod)
	r.surfaces[name] = surface
	r.mu.Unlock()

	c := &composer{
		ctx:     ctx,
		log:     log,
		rt:      r,
		surface: surface,
		caps:    mod.Capabilities(),
		report:  report,
		module:  ModuleReport{Path: pkg.Path, Extension: name, Disabled: r.disabled(name)},
	}
	if c.module.Disabled {
		log.Debug("extension disabled; icon, menu and body suppressed")
	}
	c.run()
	report.Modules = append(report.Modules, c.module)
}

// loadCatalogs registers the module's own catalogs under its namespace.
func (r *Runtime) loadCatalogs(log *slog.Logger, mod extension.Module, namespace string, report *Report) {
	loc, ok := mod.(extension.Localized)
	if !ok || r.catalogs == nil || namespace == "" {
		return
	}
	fsys := loc.Locales()
	if fsys == nil {
		return
	}
	if err := r.catalogs.LoadNamespaceFS(namespace, fsys); err != nil {
		log.Warn("load extension catalogs", slog.Any("err", err))
		report.Warnings = append(report.Warnings, err)
	}
}

// composer feeds one module's factories into the registries.
type composer struct {
	ctx     context.Context
	log     *slog.Logger
	rt      *Runtime
	surface *Surface
	caps    extension.Capabilities
	report  *Report
	module  ModuleReport
}

func (c *composer) run() {
	name := c.surface.Name()
	enabled := !c.module.Disabled

	if enabled && c.caps.Icon != nil {
		if icon, ok := invoke(c, point.KindIcon, c.caps.Icon); ok && icon.Renderable() {
			c.rt.icons.Add(registry.IconRecord{Extension: name, Icon: icon})
			c.emitted(point.KindIcon)
		}
	}

	if enabled && c.caps.Menu != nil {
		if m, ok := invoke(c, point.KindMenu, c.caps.Menu); ok && m.Renderable() {
			c.addMenu(m)
		}
	}

	if enabled && c.caps.Body != nil {
		if body, ok := invoke(c, point.KindBody, c.caps.Body); ok {
			if err := c.rt.bodies.Add(registry.BodyRecord{Extension: name, Body: body}); err != nil {
				c.log.Warn("default body rejected", slog.Any("err", err))
				c.report.Warnings = append(c.report.Warnings, err)
			}
			c.emitted(point.KindBody)
		}
	}

	if c.caps.Options != nil {
		if opts, ok := invoke(c, point.KindOptions, c.caps.Options); ok {
			c.rt.options.Add(registry.OptionsRecord{Extension: name, Options: opts})
			c.emitted(point.KindOptions)
		}
	}

	if c.caps.Settings != nil {
		if s, ok := invoke(c, point.KindSettings, c.caps.Settings); ok {
			c.rt.settings.Add(registry.SettingsRecord{Extension: name, Settings: s})
			c.emitted(point.KindSettings)
		}
	}
}

func (c *composer) addMenu(m point.Menu) {
	name, ns := c.surface.Name(), c.surface.Namespace()
	c.rt.menus.SetTitle(name, ns, m.Title)

	if !m.IsClass {
		c.rt.menus.AddData(name, m.Data)
		c.emitted(point.KindMenu)
		return
	}

	built := 0
	for _, item := range m.Items {
		if _, err := c.rt.menus.Build(name, ns, item); err != nil {
			c.fail(point.KindMenu, err)
			continue
		}
		built++
	}
	if built > 0 {
		c.emitted(point.KindMenu)
	}
}

func (c *composer) emitted(kind point.Kind) {
	c.module.Points = append(c.module.Points, kind)
}

func (c *composer) fail(kind point.Kind, err error) {
	c.log.Warn("extension point failed", slog.String("point", string(kind)), slog.Any("err", err))
	c.report.Failures = append(c.report.Failures, Failure{
		Path:      c.module.Path,
		Extension: c.surface.Name(),
		Point:     kind,
		Err:       err,
	})
}

// invoke calls one factory; failures are isolated to that point.
func invoke[T any](c *composer, kind point.Kind, fn extension.Factory[T]) (T, bool) {
	out, err := extension.Invoke(c.ctx, kind, fn, c.surface)
	if err != nil {
		c.fail(kind, err)
		return out, false
	}
	return out, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
