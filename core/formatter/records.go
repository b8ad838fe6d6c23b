package formatter

import (
	"github.com/artpar/newsdemo/domain/auth"
	"github.com/artpar/newsdemo/domain/news"
)

// NewsSchema describes news item records.
var NewsSchema = Schema{
	Name: "news",
	Fields: []Field{
		{Name: "id"},
		{Name: "title"},
		{Name: "summary"},
		{Name: "image", Hidden: true},
	},
}

// UserSchema describes user records.
var UserSchema = Schema{
	Name:   "user",
	Fields: []Field{{Name: "email"}, {Name: "name"}},
}

// NewsRecord converts an item to a record.
func NewsRecord(item news.NewsItem) map[string]any {
	return map[string]any{
		"id":      item.ID,
		"title":   item.Title,
		"summary": item.Summary,
		"image":   item.Image,
	}
}

// NewsRecords converts a list to records, keeping its order.
func NewsRecords(list news.NewsList) []map[string]any {
	records := make([]map[string]any, len(list.Items))
	for i, item := range list.Items {
		records[i] = NewsRecord(item)
	}
	return records
}

// UserRecord converts a user to a record.
func UserRecord(u auth.User) map[string]any {
	return map[string]any{
		"email": u.Email,
		"name":  u.Name,
	}
}
