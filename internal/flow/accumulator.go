package flow

import (
	"fmt"
	"strings"

	"github.com/BTreeMap/HerSpace/internal/models"
)

// ListSeparator joins accumulator values into string-typed form fields.
const ListSeparator = ", "

// AddItem appends item unless it is blank or already present. The returned slice
// may share memory with list.
func AddItem(list []string, item string) []string {
	item = strings.TrimSpace(item)
	if item == "" || contains(list, item) {
		return list
	}
	return append(list, item)
}

// DeleteItem removes the element at index, shifting later elements down by one.
func DeleteItem(list []string, index int) ([]string, error) {
	if index < 0 || index >= len(list) {
		return list, fmt.Errorf("%w: %d (list has %d items)", models.ErrIndexOutOfRange, index, len(list))
	}
	out := make([]string, 0, len(list)-1)
	out = append(out, list[:index]...)
	return append(out, list[index+1:]...), nil
}

// Toggle adds item when absent and removes it when present.
func Toggle(list []string, item string) []string {
	for i, v := range list {
		if v == item {
			out := make([]string, 0, len(list)-1)
			out = append(out, list[:i]...)
			return append(out, list[i+1:]...)
		}
	}
	return append(list, item)
}

// Combine returns selected followed by custom, dropping blanks and duplicates while
// keeping first occurrences in order. Combine(Combine(a, b), b) equals Combine(a, b).
func Combine(selected, custom []string) []string {
	out := make([]string, 0, len(selected)+len(custom))
	for _, group := range [][]string{selected, custom} {
		for _, v := range group {
			out = AddItem(out, v)
		}
	}
	return out
}

// JoinList renders a list as a comma-joined string field.
func JoinList(items []string) string {
	return strings.Join(items, ListSeparator)
}

// SplitList is the inverse of JoinList for display purposes.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func contains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}
