package game

import "github.com/quizboard/quizboard/internal/auth"

// Visible returns the games the viewer may see in the catalog: every public
// game, every game the viewer owns, and, for an admin who asked for it with
// showAll, every game. A nil viewer is an anonymous visitor. Order is preserved.
func Visible(games []Game, viewer *auth.Identity, showAll bool) []Game {
	out := make([]Game, 0, len(games))
	for i := range games {
		if showAll && viewer.IsAdmin() {
			out = append(out, games[i])
			continue
		}
		if games[i].IsPublic() || isOwner(&games[i], viewer) {
			out = append(out, games[i])
		}
	}
	return out
}

// CanView reports whether viewer may open the game directly: public games are
// open to all, private ones to their owner and to admins.
func CanView(g *Game, viewer *auth.Identity) bool {
	return g.IsPublic() || isOwner(g, viewer) || viewer.IsAdmin()
}

// CanEdit reports whether viewer may change or delete the game.
func CanEdit(g *Game, viewer *auth.Identity) bool {
	return isOwner(g, viewer) || viewer.IsAdmin()
}

func isOwner(g *Game, viewer *auth.Identity) bool {
	return viewer != nil && g.OwnerID == viewer.UserID
}
