package news

import "testing"

func sampleList() NewsList {
	return NewsList{Items: []NewsItem{
		{ID: "1", Title: "First", Summary: "one"},
		{ID: "2", Title: "Second", Summary: "two", Image: "https://img.example.com/2.png"},
	}}
}

func TestNewsList_Find(t *testing.T) {
	list := sampleList()

	tests := []struct {
		name      string
		id        string
		wantFound bool
		wantTitle string
	}{
		{name: "second item", id: "2", wantFound: true, wantTitle: "Second"},
		{name: "first item", id: "1", wantFound: true, wantTitle: "First"},
		{name: "missing item", id: "9", wantFound: false},
		{name: "empty id", id: "", wantFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, ok := list.Find(tt.id)
			if ok != tt.wantFound {
				t.Fatalf("Find(%q) found = %v, want %v", tt.id, ok, tt.wantFound)
			}
			if ok && item.Title != tt.wantTitle {
				t.Errorf("Title = %s, want %s", item.Title, tt.wantTitle)
			}
		})
	}
}

func TestNewsList_FindEmpty(t *testing.T) {
	var list NewsList
	if _, ok := list.Find("1"); ok {
		t.Error("Find on empty list should not find anything")
	}
}

func TestNewsList_Validate(t *testing.T) {
	tests := []struct {
		name    string
		list    NewsList
		wantErr bool
	}{
		{name: "valid", list: sampleList(), wantErr: false},
		{name: "empty", list: NewsList{}, wantErr: false},
		{
			name: "duplicate id",
			list: NewsList{Items: []NewsItem{
				{ID: "1", Title: "a"},
				{ID: "1", Title: "b"},
			}},
			wantErr: true,
		},
		{
			name:    "missing id",
			list:    NewsList{Items: []NewsItem{{Title: "a"}}},
			wantErr: true,
		},
		{
			name:    "missing title",
			list:    NewsList{Items: []NewsItem{{ID: "1"}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.list.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewsItem_HasImage(t *testing.T) {
	list := sampleList()
	if list.Items[0].HasImage() {
		t.Error("item 1 should not have an image")
	}
	if !list.Items[1].HasImage() {
		t.Error("item 2 should have an image")
	}
	if list.Len() != 2 {
		t.Errorf("Len() = %d, want 2", list.Len())
	}
}
