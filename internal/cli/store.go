package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"dashgrid/config"
	"dashgrid/internal/schema"
	"dashgrid/internal/store"
	"dashgrid/internal/timeutil"
)

func openStore(ctx context.Context) (*store.Store, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, err
	}
	path, err := settings.ResolveDatabasePath()
	if err != nil {
		return nil, err
	}
	s, err := store.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dashboard store: %w", err)
	}
	return s, nil
}

// StoreSave stores a dashboard file as a new version. With writeUID a
// freshly assigned UID is written back to the file.
func StoreSave(ctx context.Context, out io.Writer, path, message string, writeUID bool) error {
	doc, err := schema.ReadFile(path)
	if err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%s does not validate, run 'dash lint' for details: %w", path, err)
	}
	hadUID := doc.UID != ""

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	rec, err := s.Save(ctx, doc, message)
	if err != nil {
		return fmt.Errorf("failed to save dashboard: %w", err)
	}
	if !hadUID && writeUID {
		if err := schema.WriteFile(path, doc); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "%s Saved %q\n", checkStyle.Render("✓"), rec.Title)
	fmt.Fprintf(out, "  UID: %s\n", rec.UID)
	fmt.Fprintf(out, "  Version: %d\n", rec.Version)
	return nil
}

// StoreGet writes a stored dashboard, the latest version unless version is
// positive.
func StoreGet(ctx context.Context, out io.Writer, uid string, version int, format string) error {
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	var doc *schema.Dashboard
	if version > 0 {
		doc, err = s.GetVersion(ctx, uid, version)
	} else {
		doc, _, err = s.Get(ctx, uid)
	}
	if err != nil {
		return err
	}

	f := schema.FormatYAML
	if strings.EqualFold(format, "json") {
		f = schema.FormatJSON
	}
	data, err := schema.Encode(doc, f)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

// StoreList prints every stored dashboard.
func StoreList(ctx context.Context, out io.Writer) error {
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	records, err := s.List(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No dashboards stored")
		return nil
	}

	now := time.Now()
	fmt.Fprintf(out, "%-36s  %-28s  %-9s  %-7s  %s\n", "UID", "TITLE", "LAYOUT", "VERSION", "UPDATED")
	for _, r := range records {
		fmt.Fprintf(out, "%-36s  %-28s  %-9s  %-7d  %s\n",
			r.UID, r.Title, r.LayoutKind, r.Version, timeutil.FormatAge(r.UpdatedAt, now))
	}
	return nil
}

// StoreHistory prints the versions of a stored dashboard.
func StoreHistory(ctx context.Context, out io.Writer, uid string) error {
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	revs, err := s.History(ctx, uid)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, r := range revs {
		message := r.Message
		if message == "" {
			message = "-"
		}
		fmt.Fprintf(out, "v%-4d %s  %-14s  %s\n", r.Version, r.CreatedAt.Format("2006-01-02 15:04:05"),
			timeutil.FormatAge(r.CreatedAt, now), message)
	}
	return nil
}

// StoreDiff prints a unified diff between two versions of a dashboard.
func StoreDiff(ctx context.Context, out io.Writer, uid string, from, to int) error {
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	diff, err := s.Diff(ctx, uid, from, to)
	if err != nil {
		return err
	}
	if diff == "" {
		fmt.Fprintf(out, "Versions %d and %d are identical\n", from, to)
		return nil
	}
	fmt.Fprint(out, diff)
	return nil
}

// StoreDelete removes a dashboard and its history.
func StoreDelete(ctx context.Context, out io.Writer, uid string) error {
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Delete(ctx, uid); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s Deleted dashboard %s\n", checkStyle.Render("✓"), uid)
	return nil
}
