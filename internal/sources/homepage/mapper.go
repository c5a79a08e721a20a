package homepage

import (
	"fmt"
	"net/url"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/bookmarkhub/internal/domain"
)

// Mapper converts Homepage groups to import entries. The group name becomes a tag.
type Mapper struct {
	now func() time.Time
}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{now: time.Now}
}

// Map walks every group and item. Items without a usable href are counted as skipped.
// Groups and items are visited in name order so results are deterministic.
func (m *Mapper) Map(config Config) ([]domain.ImportEntry, int, error) {
	var entries []domain.ImportEntry
	skipped := 0
	now := m.now()

	for _, groupMap := range config {
		for _, groupName := range sortedKeys(groupMap) {
			for _, itemMap := range groupMap[groupName] {
				for _, itemName := range sortedKeys(itemMap) {
					node := itemMap[itemName]
					href, err := itemHref(&node)
					if err != nil || !validHref(href) {
						skipped++
						continue
					}

					entries = append(entries, domain.ImportEntry{
						Title:     itemName,
						URL:       href,
						CreatedAt: now,
						Tags:      []string{groupName},
					})
				}
			}
		}
	}

	if len(entries) == 0 {
		return nil, skipped, fmt.Errorf("no valid entries found in homepage config")
	}
	return entries, skipped, nil
}

// itemHref decodes a services.yaml mapping or a bookmarks.yaml list.
func itemHref(node *yaml.Node) (string, error) {
	switch node.Kind {
	case yaml.MappingNode:
		var props ServiceProps
		if err := node.Decode(&props); err != nil {
			return "", err
		}
		return props.Href, nil
	case yaml.SequenceNode:
		var list []BookmarkEntry
		if err := node.Decode(&list); err != nil {
			return "", err
		}
		// Each bookmark has a list with a single entry
		if len(list) == 0 {
			return "", nil
		}
		return list[0].Href, nil
	default:
		return "", fmt.Errorf("unexpected yaml node kind %d", node.Kind)
	}
}

func validHref(href string) bool {
	if href == "" {
		return false
	}
	u, err := url.Parse(href)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
