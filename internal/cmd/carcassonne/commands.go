package carcassonne

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/louisbranch/carcassonne/internal/services/game/domain/board"
	"github.com/louisbranch/carcassonne/internal/services/game/domain/game"
	"github.com/louisbranch/carcassonne/internal/services/game/domain/tile"
	"github.com/louisbranch/carcassonne/internal/services/game/domain/turn"
)

const inboxPageSize = 20

func runInitDB(ctx context.Context, e env, args []string) error {
	if len(args) != 0 {
		return usageErr("initdb takes no arguments")
	}
	report, err := e.rt.Seed(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.out, "seeded %d tiles, %d players created, %d kept\n",
		report.Tiles, report.PlayersCreated, report.PlayersKept)
	return err
}

func runRegister(ctx context.Context, e env, args []string) error {
	if len(args) != 2 {
		return usageErr("register <username> <email>")
	}
	svc, err := e.service(ctx)
	if err != nil {
		return err
	}
	p, err := svc.RegisterPlayer(ctx, game.RegisterPlayerInput{Username: args[0], Email: args[1]})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.out, "registered %s (%s)\n", p.Username, p.ID)
	return err
}

func runPlayers(ctx context.Context, e env, args []string) error {
	if len(args) != 0 {
		return usageErr("players takes no arguments")
	}
	svc, err := e.service(ctx)
	if err != nil {
		return err
	}
	players, err := svc.ListPlayers(ctx)
	if err != nil {
		return err
	}
	tw := newTable(e.out)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL")
	for _, p := range players {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Username, p.Email)
	}
	return tw.Flush()
}

func runTiles(ctx context.Context, e env, args []string) error {
	if len(args) != 0 {
		return usageErr("tiles takes no arguments")
	}
	svc, err := e.service(ctx)
	if err != nil {
		return err
	}
	tw := newTable(e.out)
	fmt.Fprintln(tw, "ID\tNORTH\tEAST\tSOUTH\tWEST\tSPECIAL\tPATH")
	for _, t := range svc.Tiles() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%t\t%s\n", t.ID,
			t.Side(tile.North), t.Side(tile.East), t.Side(tile.South), t.Side(tile.West),
			t.Special, t.Path)
	}
	return tw.Flush()
}

func runGames(ctx context.Context, e env, args []string) error {
	if len(args) != 0 {
		return usageErr("games takes no arguments")
	}
	svc, err := e.service(ctx)
	if err != nil {
		return err
	}
	games, err := svc.ListGames(ctx)
	if err != nil {
		return err
	}
	tw := newTable(e.out)
	fmt.Fprintln(tw, "ID\tCREATED\tPLAYERS")
	for _, g := range games {
		names := make([]string, len(g.Players))
		for i, p := range g.Players {
			names[i] = p.Username
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", g.ID, g.CreatedAt.UTC().Format(time.RFC3339), strings.Join(names, ", "))
	}
	return tw.Flush()
}

func runStart(ctx context.Context, e env, args []string) error {
	fs := newFlagSet("start")
	demo := fs.Bool("demo", false, "script the sample opening")
	if err := fs.Parse(args); err != nil {
		return usageErr("start: %v", err)
	}
	svc, err := e.service(ctx)
	if err != nil {
		return err
	}
	playerIDs, err := resolvePlayers(ctx, svc, fs.Args())
	if err != nil {
		return err
	}
	input := game.StartGameInput{PlayerIDs: playerIDs}
	if *demo {
		input.Opening = game.DemoOpening()
	}
	g, err := svc.StartGame(ctx, input)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(e.out, "started game %s\n", g.ID); err != nil {
		return err
	}
	if pending, ok := g.PendingTurn(); ok {
		return printPending(e.out, g, pending)
	}
	return nil
}

// resolvePlayers maps ids or usernames to player ids. With no names it seats
// every registered player in listing order.
func resolvePlayers(ctx context.Context, svc *game.Service, names []string) ([]string, error) {
	players, err := svc.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		if len(players) < 2 {
			return nil, game.ErrInsufficientPlayers
		}
		ids := make([]string, len(players))
		for i, p := range players {
			ids[i] = p.ID
		}
		return ids, nil
	}
	ids := make([]string, 0, len(names))
	for _, name := range names {
		found := false
		for _, p := range players {
			if p.ID == name || strings.EqualFold(p.Username, name) {
				ids = append(ids, p.ID)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("player %q: %w", name, game.ErrNotFound)
		}
	}
	return ids, nil
}

func runShow(ctx context.Context, e env, args []string) error {
	fs := newFlagSet("show")
	token := fs.String("token", "", "turn token from a turn link")
	if err := fs.Parse(args); err != nil {
		return usageErr("show: %v", err)
	}
	if fs.NArg() != 1 {
		return usageErr("show [-token t] <game>")
	}
	svc, err := e.service(ctx)
	if err != nil {
		return err
	}
	v, err := svc.ViewGame(ctx, fs.Arg(0), *token)
	if err != nil {
		return err
	}
	return printView(e.out, v)
}

func runCommit(ctx context.Context, e env, args []string) error {
	if len(args) != 3 {
		return usageErr("commit <turn> <x> <y>")
	}
	x, err := parseInt("x", args[1])
	if err != nil {
		return err
	}
	y, err := parseInt("y", args[2])
	if err != nil {
		return err
	}
	svc, err := e.service(ctx)
	if err != nil {
		return err
	}
	t, err := svc.CommitTurn(ctx, game.CommitTurnInput{TurnID: args[0], X: x, Y: y})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.out, "placed tile %d at (%d, %d)\n", t.TileID, t.Position.X, t.Position.Y)
	return err
}

func runAdvance(ctx context.Context, e env, args []string) error {
	if len(args) != 1 {
		return usageErr("advance <game>")
	}
	svc, err := e.service(ctx)
	if err != nil {
		return err
	}
	t, err := svc.AdvanceTurn(ctx, args[0])
	if err != nil {
		return err
	}
	g, err := svc.GetGame(ctx, t.GameID)
	if err != nil {
		return err
	}
	return printPending(e.out, g, t)
}

func runInbox(ctx context.Context, e env, args []string) error {
	fs := newFlagSet("inbox")
	pageToken := fs.String("page", "", "page token from a previous listing")
	if err := fs.Parse(args); err != nil {
		return usageErr("inbox: %v", err)
	}
	if fs.NArg() != 1 {
		return usageErr("inbox [-page token] <player>")
	}
	svc, err := e.service(ctx)
	if err != nil {
		return err
	}
	ids, err := resolvePlayers(ctx, svc, fs.Args())
	if err != nil {
		return err
	}
	page, err := e.rt.Outbox().Inbox(ctx, ids[0], inboxPageSize, *pageToken)
	if err != nil {
		return err
	}
	tw := newTable(e.out)
	fmt.Fprintln(tw, "ID\tTYPE\tCREATED\tPAYLOAD")
	for _, n := range page.Notifications {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", n.ID, n.MessageType, n.CreatedAt.UTC().Format(time.RFC3339), n.PayloadJSON)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if page.NextPageToken != "" {
		_, err = fmt.Fprintf(e.out, "next page: %s\n", page.NextPageToken)
	}
	return err
}

func runDeliver(ctx context.Context, e env, args []string) error {
	if len(args) != 0 {
		return usageErr("deliver takes no arguments")
	}
	report, err := e.rt.Outbox().Deliver(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.out, "delivered %d, retried %d, abandoned %d\n",
		report.Delivered, report.Retried, report.Abandoned)
	return err
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

func printPending(out io.Writer, g game.Game, t turn.Turn) error {
	name := t.PlayerID
	if p, ok := g.Player(t.PlayerID); ok {
		name = p.Username
	}
	_, err := fmt.Fprintf(out, "pending turn %s: %s draws tile %d\n", t.ID, name, t.TileID)
	return err
}

// printView draws the board with one column per x and one row per y. Empty
// squares print as dots.
func printView(out io.Writer, v game.View) error {
	if _, err := fmt.Fprintf(out, "game %s\n", v.Game.ID); err != nil {
		return err
	}
	if len(v.Board) == 0 {
		if _, err := fmt.Fprintln(out, "(empty board)"); err != nil {
			return err
		}
	}
	for _, row := range v.Board {
		var b strings.Builder
		for _, cell := range row {
			b.WriteString(formatCell(cell))
		}
		if _, err := fmt.Fprintln(out, strings.TrimRight(b.String(), " ")); err != nil {
			return err
		}
	}
	if v.IsPlayersTurn && v.PendingTurn != nil {
		return printPending(out, v.Game, *v.PendingTurn)
	}
	return nil
}

func formatCell(c board.Cell) string {
	if !c.Occupied() {
		return fmt.Sprintf("%4s", ".")
	}
	return fmt.Sprintf("%4d", c.Turn.TileID)
}
