package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophboard/internal/client/detail"
	"github.com/dmitrijs2005/gophboard/internal/client/likes"
	"github.com/dmitrijs2005/gophboard/internal/client/models"
	"github.com/dmitrijs2005/gophboard/internal/client/prefs"
	"github.com/dmitrijs2005/gophboard/internal/client/ui"
	"github.com/dmitrijs2005/gophboard/internal/common"
	"github.com/dmitrijs2005/gophboard/internal/filex"
)

// getSimpleText and getMultiline are indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getMultiline  = GetMultiline
)

func (a *App) commands() []command {
	return []command{
		{name: "register", usage: "register", help: "create an account", run: a.Register},
		{name: "login", usage: "login", help: "sign in", run: a.Login},
		{name: "logout", usage: "logout", help: "sign out (your draft is kept)", auth: true, run: a.Logout},

		{name: "posts", aliases: []string{"l", "list"}, usage: "posts", help: "reload the post list", run: a.Posts},
		{name: "search", usage: "search [text]", help: "filter posts by title (no text clears)", run: a.Search},
		{name: "page", usage: "page <n|next|prev>", help: "go to another page", run: a.Page},
		{name: "show", usage: "show <post id>", help: "open a post with its comments", run: a.Show},
		{name: "like", usage: "like [post id]", help: "like or unlike a post (the open one by default)", auth: true, run: a.Like},

		{name: "comment", usage: "comment <text>", help: "comment on the open post", auth: true, run: a.Comment},
		{name: "editcomment", usage: "editcomment <comment id>", help: "edit your comment", auth: true, run: a.EditComment},
		{name: "deletecomment", usage: "deletecomment <comment id>", help: "delete your comment", auth: true, run: a.DeleteComment},
		{name: "edit", usage: "edit", help: "edit the open post", auth: true, run: a.Edit},
		{name: "delete", usage: "delete", help: "delete the open post", auth: true, run: a.Delete},

		{name: "write", usage: "write [title|body|image|upload|rmimage|publish|discard]", help: "work on your draft", run: a.Write},

		{name: "nickname", usage: "nickname <name>", help: "change your nickname", auth: true, run: a.Nickname},
		{name: "avatar", usage: "avatar <file>", help: "upload a PNG or JPEG avatar", auth: true, run: a.Avatar},
		{name: "rmavatar", usage: "rmavatar", help: "remove your avatar", auth: true, run: a.RemoveAvatar},
		{name: "deleteaccount", usage: "deleteaccount", help: "delete your account", auth: true, run: a.DeleteAccount},

		{name: "myposts", usage: "myposts", help: "list your posts", auth: true, run: a.MyPosts},
		{name: "mycomments", usage: "mycomments", help: "list your comments", auth: true, run: a.MyComments},
		{name: "mylikes", usage: "mylikes", help: "list posts you liked", auth: true, run: a.MyLikes},

		{name: "theme", usage: "theme [light|dark]", help: "switch the color theme", run: a.Theme},
	}
}

func usage(u string) error {
	return common.Invalid("usage", u)
}

func parseID(args []string, u string) (int64, error) {
	if len(args) != 1 {
		return 0, usage(u)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, usage(u)
	}
	return id, nil
}

// ---- auth ----

// Register prompts for the registration form and creates the account.
func (a *App) Register(ctx context.Context, _ []string) error {
	email, err := getSimpleText(a.in, "Enter email", a.out)
	if err != nil {
		return err
	}
	nickname, err := getSimpleText(a.in, "Enter nickname", a.out)
	if err != nil {
		return err
	}
	password, err := a.password("Enter password: ")
	if err != nil {
		return err
	}
	defer wipe(password)
	confirm, err := a.password("Repeat password: ")
	if err != nil {
		return err
	}
	defer wipe(confirm)

	creds := models.Credentials{Email: email, Password: string(password), DisplayName: nickname}
	if err := a.auth.Register(ctx, creds, string(confirm)); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Account created. You can log in now.")
	a.route = ui.RouteLogin
	return nil
}

// Login prompts for credentials and signs in.
func (a *App) Login(ctx context.Context, _ []string) error {
	email, err := getSimpleText(a.in, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := a.password("Enter password: ")
	if err != nil {
		return err
	}
	defer wipe(password)

	sess, err := a.auth.Login(ctx, email, string(password))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s!\n", sess.DisplayName)
	a.route = ui.RoutePosts
	return nil
}

func (a *App) Logout(ctx context.Context, _ []string) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	a.route = ui.RouteLogin
	return nil
}

// ---- post list ----

func (a *App) listPosts(ctx context.Context, fetch func(ctx context.Context) error) error {
	if err := fetch(ctx); err != nil {
		return err
	}
	a.route = ui.RoutePosts
	printPostList(a.out, a.posts.Snapshot())
	return nil
}

func (a *App) Posts(ctx context.Context, _ []string) error {
	return a.listPosts(ctx, func(ctx context.Context) error {
		_, err := a.posts.Refresh(ctx)
		return err
	})
}

func (a *App) Search(ctx context.Context, args []string) error {
	return a.listPosts(ctx, func(ctx context.Context) error {
		_, err := a.posts.Search(ctx, strings.Join(args, " "))
		return err
	})
}

func (a *App) Page(ctx context.Context, args []string) error {
	const u = "page <n|next|prev>"
	if len(args) != 1 {
		return usage(u)
	}
	return a.listPosts(ctx, func(ctx context.Context) error {
		var err error
		switch args[0] {
		case "next", "n":
			_, err = a.posts.Next(ctx)
		case "prev", "p":
			_, err = a.posts.Prev(ctx)
		default:
			n, convErr := strconv.Atoi(args[0])
			if convErr != nil {
				return usage(u)
			}
			_, err = a.posts.GoTo(ctx, n)
		}
		return err
	})
}

// ---- post detail ----

func (a *App) Show(ctx context.Context, args []string) error {
	id, err := parseID(args, "show <post id>")
	if err != nil {
		return err
	}
	if err := a.detail.Load(ctx, id); err != nil {
		return err
	}
	a.route = ui.RoutePost
	printDetail(a.out, a.detail)
	return nil
}

// openPost returns the displayed post or a validation error when none is open.
func (a *App) openPost() (models.Post, error) {
	switch a.detail.State() {
	case detail.StateViewing, detail.StateEditing:
		return a.detail.Post(), nil
	default:
		return models.Post{}, common.Invalid("post", "open a post with 'show <id>' first")
	}
}

func (a *App) Like(ctx context.Context, args []string) error {
	var (
		out likes.Outcome
		err error
	)
	if len(args) > 0 {
		id, perr := parseID(args, "like [post id]")
		if perr != nil {
			return perr
		}
		out, err = a.posts.ToggleLike(ctx, id)
	} else {
		if _, oerr := a.openPost(); oerr != nil {
			return oerr
		}
		out, err = a.detail.ToggleLike(ctx)
	}
	if err != nil {
		if out.Reverted {
			fmt.Fprintf(a.out, "Like of post #%d was not saved.\n", out.PostID)
		}
		return err
	}
	printLikeOutcome(a.out, out)
	return nil
}

func (a *App) Comment(ctx context.Context, args []string) error {
	if _, err := a.openPost(); err != nil {
		return err
	}
	if len(args) == 0 {
		return usage("comment <text>")
	}
	c, err := a.detail.Comments().Create(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Comment #%d added.\n", c.ID)
	return nil
}

func (a *App) EditComment(ctx context.Context, args []string) error {
	id, err := parseID(args, "editcomment <comment id>")
	if err != nil {
		return err
	}
	thread := a.detail.Comments()
	current, err := thread.BeginEdit(id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Current text: %s\n", current)
	text, err := getSimpleText(a.in, "New text (empty to keep)", a.out)
	if err != nil {
		thread.CancelEdit()
		return err
	}
	if text == "" {
		text = current
	}
	if _, err := thread.Update(ctx, id, text); err != nil {
		thread.CancelEdit()
		return err
	}
	fmt.Fprintln(a.out, "Comment updated.")
	return nil
}

func (a *App) DeleteComment(ctx context.Context, args []string) error {
	id, err := parseID(args, "deletecomment <comment id>")
	if err != nil {
		return err
	}
	if err := a.detail.Comments().Delete(ctx, id, a); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Comment deleted.")
	return nil
}

// Edit walks through editing the open post. A rejected save leaves the post
// as it was.
func (a *App) Edit(ctx context.Context, _ []string) error {
	if _, err := a.openPost(); err != nil {
		return err
	}
	title, body, err := a.detail.BeginEdit()
	if err != nil {
		return err
	}
	newTitle, err := getSimpleText(a.in, fmt.Sprintf("Title [%s] (empty to keep)", title), a.out)
	if err != nil {
		a.detail.CancelEdit()
		return err
	}
	if newTitle != "" {
		title = newTitle
	}
	newBody, err := getMultiline(a.in, "Body (empty to keep)", a.out)
	if err != nil {
		a.detail.CancelEdit()
		return err
	}
	if newBody != "" {
		body = newBody
	}

	if _, err := a.detail.Save(ctx, title, body); err != nil {
		a.detail.CancelEdit()
		fmt.Fprintln(a.out, "The post was not changed.")
		return err
	}
	printDetail(a.out, a.detail)
	return nil
}

func (a *App) Delete(ctx context.Context, _ []string) error {
	if _, err := a.openPost(); err != nil {
		return err
	}
	if err := a.detail.Delete(ctx, a); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Post deleted.")
	return a.Posts(ctx, nil)
}

// ---- draft ----

func (a *App) Write(ctx context.Context, args []string) error {
	a.route = ui.RouteCompose
	sub := "show"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}

	switch sub {
	case "show":
	case "title":
		if len(args) == 0 {
			return usage("write title <text>")
		}
		a.drafts.SetTitle(strings.Join(args, " "))
	case "body":
		body, err := getMultiline(a.in, "Body", a.out)
		if err != nil {
			return err
		}
		a.drafts.SetBody(body)
	case "image":
		if len(args) != 1 {
			return usage("write image <file>")
		}
		f, err := filex.ReadImage(args[0], filex.ImageTypes...)
		if err != nil {
			return common.Invalid("image", err.Error())
		}
		if _, err := a.drafts.SelectImage(models.Image{Name: f.Name, ContentType: f.ContentType, Data: f.Data}); err != nil {
			return err
		}
	case "upload":
		url, err := a.drafts.RegisterImage(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Image uploaded:", url)
	case "rmimage":
		if err := a.drafts.RemoveImage(ctx); err != nil {
			return err
		}
	case "publish":
		d := a.drafts.Draft()
		p, err := a.drafts.Publish(ctx, d.Title, d.Body)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Published post #%d.\n", p.ID)
		return a.Posts(ctx, nil)
	case "discard":
		if err := ui.Ask(ctx, a, "Discard the draft?"); err != nil {
			return err
		}
		if err := a.drafts.Discard(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Draft discarded.")
		return nil
	default:
		return usage("write [title|body|image|upload|rmimage|publish|discard]")
	}

	printDraft(a.out, a.drafts)
	return nil
}

// ---- profile ----

func (a *App) Nickname(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usage("nickname <name>")
	}
	if err := a.profile.UpdateNickname(ctx, strings.Join(args, " ")); err != nil {
		return err
	}
	sess, _ := a.sessions.Current()
	fmt.Fprintf(a.out, "You are now %s.\n", sess.DisplayName)
	return nil
}

func (a *App) Avatar(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("avatar <file>")
	}
	a.route = ui.RouteProfile
	f, err := filex.ReadImage(args[0], filex.AvatarTypes...)
	if err != nil {
		return common.Invalid("avatar", err.Error())
	}
	if err := a.profile.StageAvatar(models.Image{Name: f.Name, ContentType: f.ContentType, Data: f.Data}); err != nil {
		return err
	}
	url, err := a.profile.UploadAvatar(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Avatar updated:", url)
	return nil
}

func (a *App) RemoveAvatar(ctx context.Context, _ []string) error {
	a.route = ui.RouteProfile
	if err := a.profile.RemoveAvatar(ctx, a); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Avatar removed.")
	return nil
}

func (a *App) DeleteAccount(ctx context.Context, _ []string) error {
	a.route = ui.RouteProfile
	if err := a.profile.DeleteAccount(ctx, a); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Your account was deleted.")
	return nil
}

// ---- activity ----

func (a *App) loadActivity(ctx context.Context) error {
	a.route = ui.RouteProfile
	return a.activity.Load(ctx)
}

func (a *App) MyPosts(ctx context.Context, _ []string) error {
	if err := a.loadActivity(ctx); err != nil {
		return err
	}
	printItems(a.out, "Your posts", a.activity.Posts())
	return nil
}

func (a *App) MyLikes(ctx context.Context, _ []string) error {
	if err := a.loadActivity(ctx); err != nil {
		return err
	}
	printItems(a.out, "Posts you liked", a.activity.LikedPosts())
	return nil
}

func (a *App) MyComments(ctx context.Context, _ []string) error {
	if err := a.loadActivity(ctx); err != nil {
		return err
	}
	printMyComments(a.out, a.activity.Comments())
	return nil
}

// ---- prefs ----

func (a *App) Theme(ctx context.Context, args []string) error {
	var (
		t   prefs.Theme
		err error
	)
	switch len(args) {
	case 0:
		t, err = a.prefs.ToggleTheme(ctx)
	case 1:
		if t, err = prefs.ParseTheme(args[0]); err == nil {
			err = a.prefs.SetTheme(ctx, t)
		}
	default:
		err = usage("theme [light|dark]")
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Theme: %s\n", t)
	return nil
}

var _ ui.Navigator = (*App)(nil)
var _ ui.Confirmer = (*App)(nil)
