package main

import (
	"bufio"
	"context"
	"ctchen222/tictactoe-minimax/internal/bot"
	"ctchen222/tictactoe-minimax/internal/game"
	"ctchen222/tictactoe-minimax/internal/logger"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

var (
	markFlag       = flag.String("mark", "X", "mark you play, X moves first")
	difficultyFlag = flag.String("difficulty", "hard", "computer strength: easy, medium or hard")
	logLevelFlag   = flag.String("log-level", "warn", "log level")
)

func main() {
	flag.Parse()
	slog.SetDefault(logger.New(os.Stderr, *logLevelFlag))

	human, err := game.ParseMark(strings.ToUpper(*markFlag))
	if err != nil || human == game.Empty {
		fmt.Fprintf(os.Stderr, "invalid mark %q\n", *markFlag)
		os.Exit(2)
	}

	if err := play(context.Background(), os.Stdin, os.Stdout, human, bot.ParseDifficulty(*difficultyFlag)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// play runs one game on the terminal. Moves are read as "row col" with
// zero-based coordinates.
func play(ctx context.Context, in io.Reader, out io.Writer, human game.PlayerMark, difficulty bot.Difficulty) error {
	scanner := bufio.NewScanner(in)
	board := game.InitialState()

	for !board.IsTerminal() {
		if board.PlayerToMove() != human {
			move, _, err := bot.CalculateNextMove(ctx, board, difficulty)
			if err != nil {
				return err
			}
			if board, err = board.ApplyMove(move); err != nil {
				return err
			}
			fmt.Fprintf(out, "computer plays %s\n", move)
			continue
		}

		fmt.Fprintf(out, "%s\nyour move (row col): ", board)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			return errors.New("input closed before the game ended")
		}

		move, err := parseMove(scanner.Text())
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		next, err := board.ApplyMove(move)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		board = next
	}

	fmt.Fprintf(out, "%s\n%s\n", board, outcome(board, human))
	return nil
}

func parseMove(line string) (game.Move, error) {
	fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
	if len(fields) != 2 {
		return game.Move{}, fmt.Errorf("expected two numbers, got %q", line)
	}
	row, err := strconv.Atoi(fields[0])
	if err != nil {
		return game.Move{}, fmt.Errorf("bad row %q", fields[0])
	}
	col, err := strconv.Atoi(fields[1])
	if err != nil {
		return game.Move{}, fmt.Errorf("bad column %q", fields[1])
	}
	return game.Move{Row: row, Col: col}, nil
}

func outcome(board game.Board, human game.PlayerMark) string {
	winner, ok := board.Winner()
	switch {
	case !ok:
		return "draw"
	case winner == human:
		return "you win"
	}
	return "you lose"
}
