package registry

// Builtin returns the views that ship with docktile.
func Builtin() []Descriptor {
	return []Descriptor{
		{ID: "library", Name: "Library", Route: "/library", Handle: "library"},
		{ID: "albums", Name: "Albums", Route: "/albums", Handle: "albums"},
		{ID: "viewer", Name: "Viewer", Route: "/viewer", Handle: "viewer"},
		{ID: "metadata", Name: "Metadata", Handle: "metadata"},
		{ID: "search", Name: "Search", Route: "/search", Handle: "search"},
		{ID: "queue", Name: "Upload queue", Handle: "queue"},
		{ID: "tags", Name: "Tags", Route: "/tags", Handle: "tags"},
		{ID: "activity", Name: "Activity", Handle: "activity"},
	}
}
