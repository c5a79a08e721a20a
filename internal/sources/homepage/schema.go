package homepage

import "gopkg.in/yaml.v3"

// Config is the common top-level shape of Homepage's services.yaml and
// bookmarks.yaml: a list of groups, each holding a list of named items.
//
//	- Group:
//	    - Item name: <item body>
//
// In services.yaml the item body is a mapping (ServiceProps); in
// bookmarks.yaml it is a one-element list of BookmarkEntry. The body is kept
// as a raw node and decoded by kind.
type Config []map[string][]map[string]yaml.Node

// ServiceProps contains the service properties we care about.
type ServiceProps struct {
	Href        string `yaml:"href"`
	Icon        string `yaml:"icon,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// BookmarkEntry is a single bookmark entry in bookmarks.yaml.
type BookmarkEntry struct {
	Icon string `yaml:"icon"`
	Abbr string `yaml:"abbr"`
	Href string `yaml:"href"`
}
