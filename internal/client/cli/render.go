package cli

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/gophboard/internal/client/detail"
	"github.com/dmitrijs2005/gophboard/internal/client/drafts"
	"github.com/dmitrijs2005/gophboard/internal/client/likes"
	"github.com/dmitrijs2005/gophboard/internal/client/models"
	"github.com/dmitrijs2005/gophboard/internal/client/posts"
	"github.com/samber/lo"
)

const timeLayout = "2006-01-02 15:04"

var (
	blockTag = regexp.MustCompile(`(?i)</p>|<br\s*/?>`)
	anyTag   = regexp.MustCompile(`<[^>]*>`)
)

// plainText turns the editor's HTML into readable terminal text.
func plainText(html string) string {
	s := blockTag.ReplaceAllString(html, "\n")
	s = anyTag.ReplaceAllString(s, "")
	lines := lo.Filter(strings.Split(s, "\n"), func(l string, _ int) bool {
		return strings.TrimSpace(l) != ""
	})
	return strings.Join(lines, "\n")
}

func heart(liked bool) string {
	if liked {
		return "♥"
	}
	return "♡"
}

func printItem(w io.Writer, it posts.Item) {
	fmt.Fprintf(w, "  #%-5d %s  by %s  %s %d\n", it.ID, it.Title, it.AuthorDisplayName, heart(it.Liked), it.LikeCount)
}

func printPostList(w io.Writer, s posts.Snapshot) {
	if s.Search != "" {
		fmt.Fprintf(w, "Posts matching %q:\n", s.Search)
	}
	if s.IsEmpty() {
		fmt.Fprintln(w, "No posts yet.")
		return
	}
	for _, it := range s.Items {
		printItem(w, it)
	}

	nav := []string{fmt.Sprintf("page %d of %d (%d posts)", s.PageNumber, max(s.TotalPages, 1), s.TotalCount)}
	if s.HasPrev() {
		nav = append(nav, "'page prev'")
	}
	if s.HasNext() {
		nav = append(nav, "'page next'")
	}
	fmt.Fprintln(w, strings.Join(nav, "  "))
}

func printItems(w io.Writer, title string, items []posts.Item) {
	fmt.Fprintf(w, "%s (%d):\n", title, len(items))
	for _, it := range items {
		printItem(w, it)
	}
}

func printDetail(w io.Writer, v *detail.View) {
	p := v.Post()
	fmt.Fprintf(w, "#%d %s\n", p.ID, p.Title)
	fmt.Fprintf(w, "by %s, %s  %s %d\n", p.AuthorDisplayName, p.CreatedAt.Format(timeLayout), heart(v.Liked()), p.LikeCount)
	if p.ImageURL != "" {
		fmt.Fprintln(w, "image:", p.ImageURL)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, plainText(p.Body))
	fmt.Fprintln(w)

	items := v.Comments().Items()
	fmt.Fprintf(w, "Comments (%d):\n", len(items))
	for _, c := range items {
		printComment(w, c)
	}
	if v.IsAuthor() {
		fmt.Fprintln(w, "You wrote this post: 'edit' or 'delete' it.")
	}
}

func printComment(w io.Writer, c models.Comment) {
	fmt.Fprintf(w, "  [%d] %s, %s: %s\n", c.ID, c.AuthorDisplayName, c.CreatedAt.Format(timeLayout), c.Content)
}

func printMyComments(w io.Writer, list []models.MyComment) {
	fmt.Fprintf(w, "Your comments (%d):\n", len(list))
	for _, c := range list {
		fmt.Fprintf(w, "  [%d] on #%d %q: %s\n", c.ID, c.PostID, c.PostTitle, c.Content)
	}
}

func printLikeOutcome(w io.Writer, o likes.Outcome) {
	verb := "Unliked"
	if o.Liked {
		verb = "Liked"
	}
	fmt.Fprintf(w, "%s post #%d (%s %d)\n", verb, o.PostID, heart(o.Liked), o.LikeCount)
}

func printDraft(w io.Writer, c *drafts.Composer) {
	d := c.Draft()
	fmt.Fprintf(w, "Draft [%s]\n", c.Status())
	fmt.Fprintf(w, "  title: %s\n", d.Title)
	fmt.Fprintf(w, "  body:  %s\n", strings.ReplaceAll(plainText(d.Body), "\n", "\n         "))
	switch p, ok := c.Preview(); {
	case ok:
		fmt.Fprintf(w, "  image: %s (not uploaded, 'write upload')\n", p.Image.Name)
	case d.ImageURL != "":
		fmt.Fprintf(w, "  image: %s\n", d.ImageURL)
	}
}
