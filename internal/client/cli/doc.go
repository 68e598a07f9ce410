// Package cli is the terminal front end of gophboard.
//
// App wires the synchronization components (session, likes, post list,
// post detail, comments, draft, profile, activity and preferences) to a
// line-oriented REPL. App also acts as the ui.Navigator and ui.Confirmer of
// those components: navigation changes the route shown in the prompt and
// confirmations are asked as y/N questions on the same input.
package cli
