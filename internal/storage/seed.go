package storage

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"taskfin/internal/core"
	"taskfin/internal/store"
)

// Seed creates the starter data for userID when the user has no lists and
// no categories yet: an Inbox list and the categories read from
// seed_categories.txt in dir ("expense:Food" or "income:Salary" per line).
func Seed(ctx context.Context, repos store.Repositories, userID, dir string) error {
	lists, err := repos.Lists().List(ctx, userID)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	cats, err := repos.Categories().List(ctx, userID)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if len(lists) > 0 || len(cats) > 0 {
		return nil
	}
	if _, err := repos.Lists().Create(ctx, core.TaskList{ID: core.NewID(), UserID: userID, Name: "Inbox"}); err != nil {
		return fmt.Errorf("seed inbox: %w", err)
	}
	seeds := readSeedCategories(filepath.Join(dir, "seed_categories.txt"))
	if len(seeds) == 0 {
		seeds = []core.Category{
			{Name: "Groceries", Type: core.CategoryExpense},
			{Name: "Housing", Type: core.CategoryExpense},
			{Name: "Transport", Type: core.CategoryExpense},
			{Name: "Salary", Type: core.CategoryIncome},
		}
	}
	for _, c := range seeds {
		c.ID = core.NewID()
		c.UserID = userID
		if _, err := repos.Categories().Create(ctx, c); err != nil {
			return fmt.Errorf("seed category %q: %w", c.Name, err)
		}
	}
	slog.InfoContext(ctx, "Seeded starter data", "user_id", userID, "categories", len(seeds))
	return nil
}

func readSeedCategories(path string) []core.Category {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []core.Category
	seen := map[string]struct{}{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		typ, name, ok := strings.Cut(line, ":")
		if !ok {
			typ, name = string(core.CategoryExpense), line
		}
		c := core.Category{Name: strings.TrimSpace(name), Type: core.CategoryType(strings.TrimSpace(typ))}
		if c.Name == "" || !c.Type.Valid() {
			continue
		}
		key := string(c.Type) + ":" + strings.ToLower(c.Name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}
