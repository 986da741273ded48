package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// errQuit marks a deliberate exit, as opposed to a transport failure that
// should trigger a reconnect.
var errQuit = errors.New("quit")

const gameBlurb = "TypeFast is a team-based typing game. You and your two teammates " +
	"must each type a given word correctly; once all three players have typed it, " +
	"the next word is provided to the team. Type fast and work together!"

// runClient is the interactive console client. It reconnects with bounded
// exponential backoff on transport failure, starting over from the login
// menu, since the server keeps no session identity across connections.
func runClient(ctx context.Context, cfg *Config) error {
	in := bufio.NewScanner(os.Stdin)
	attempts := 0
	backoff := 2 * time.Second

	for {
		conn, resp, err := websocket.DefaultDialer.DialContext(ctx, cfg.server, nil)
		if err != nil {
			if resp != nil {
				_ = resp.Body.Close()
			}

			attempts++
			if attempts > cfg.retries {
				return fmt.Errorf("unable to reach %s after %d attempts: %w", cfg.server, attempts, err)
			}

			fmt.Printf("Connection failed, retrying in %s...\n", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}

			backoff *= 2
			if backoff > 30*time.Second {
				backoff = 30 * time.Second
			}
			continue
		}

		attempts = 0
		backoff = 2 * time.Second
		fmt.Println("Connected to the server!")

		c := &client{conn: conn, in: in}
		err = c.play()
		_ = conn.Close()

		if errors.Is(err, errQuit) {
			fmt.Println("Connection will terminate")
			return nil
		}

		fmt.Println("Connection lost. Reconnecting...")
	}
}

type client struct {
	conn     *websocket.Conn
	in       *bufio.Scanner
	username string
}

func (c *client) sendMsg(msg ClientMessage) error {
	return c.conn.WriteJSON(msg)
}

func (c *client) readLine() (string, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// prompt reads one line from stdin. EOF counts as a quit.
func (c *client) prompt(label string) (string, error) {
	fmt.Print(label)
	if !c.in.Scan() {
		return "", errQuit
	}
	return strings.TrimSpace(c.in.Text()), nil
}

// play runs the whole session state machine: login menu, lobby, pre-game,
// rounds. Any transport error propagates up and triggers a reconnect.
func (c *client) play() error {
	if err := c.loginMenu(); err != nil {
		return c.finish(err)
	}

	// Logged in; form teams and play games until the user exits.
	for {
		if err := c.lobby(); err != nil {
			return c.finish(err)
		}
		if err := c.playGame(); err != nil {
			return c.finish(err)
		}
	}
}

// finish sends the exit request on a deliberate quit so the server tears the
// session down cleanly.
func (c *client) finish(err error) error {
	if errors.Is(err, errQuit) {
		_ = c.sendMsg(ClientMessage{Type: "q"})
	}
	return err
}

func (c *client) loginMenu() error {
	fmt.Println()
	fmt.Println(gameBlurb)
	fmt.Println()

	for {
		choice, err := c.prompt("Make a choice: 1- Register 2- Login q- Exit\nCHOOSE THEN PRESS ENTER: ")
		if err != nil {
			return err
		}

		switch choice {
		case "1", "2":
		case "q":
			return errQuit
		default:
			continue
		}

		username, err := c.prompt("Enter Your Username: ")
		if err != nil {
			return err
		}
		password, err := c.prompt("Enter Your Password: ")
		if err != nil {
			return err
		}

		if choice == "1" {
			if err := c.sendMsg(ClientMessage{Type: "register", Username: username, Password: password}); err != nil {
				return err
			}
			line, err := c.readLine()
			if err != nil {
				return err
			}
			fmt.Println(line)
			continue
		}

		if err := c.sendMsg(ClientMessage{Type: "login", Username: username, Password: password}); err != nil {
			return err
		}
		line, err := c.readLine()
		if err != nil {
			return err
		}

		switch line {
		case "true":
			fmt.Println("logged in successfully!")
			c.username = username
			return nil
		case "false":
			fmt.Println("login failed")
		default:
			fmt.Println(line)
		}
	}
}

// lobby waits for the user to request a team, then for the team to fill.
func (c *client) lobby() error {
	for {
		fmt.Printf("\nHello %s\n", c.username)
		choice, err := c.prompt("Type 'ready' to join a team or 'exit' to quit: ")
		if err != nil {
			return err
		}

		switch choice {
		case "exit":
			return errQuit
		case "ready":
		default:
			continue
		}

		fmt.Println("Team making ... Please be patient")
		if err := c.sendMsg(ClientMessage{Type: "make a team"}); err != nil {
			return err
		}

		for {
			line, err := c.readLine()
			if err != nil {
				return err
			}

			if line == "Waiting for team members..." {
				fmt.Println(line)
				continue
			}

			if teamID, convErr := strconv.Atoi(line); convErr == nil {
				fmt.Printf("You are now in team '%d'\n", teamID)
				return nil
			}

			// State error from the server; back to the menu.
			fmt.Println(line)
			break
		}
	}
}

func (c *client) playGame() error {
	for {
		choice, err := c.prompt("\nType 'start' to start the game or 'exit' to quit: ")
		if err != nil {
			return err
		}

		switch choice {
		case "exit":
			return errQuit
		case "start":
		default:
			continue
		}

		if err := c.sendMsg(ClientMessage{Type: "start a game"}); err != nil {
			return err
		}

		// "Waiting for all team members to be ready...", then (once everyone
		// is ready) "Game started for team N" and the first word.
		for i := 0; i < 3; i++ {
			line, err := c.readLine()
			if err != nil {
				return err
			}
			fmt.Println(line)
		}

		return c.answerLoop()
	}
}

// answerLoop submits answers round by round until the game ends or the user
// withdraws to spectate.
func (c *client) answerLoop() error {
	for {
		answer, err := c.prompt("(Q/q to spectate) Your answer: ")
		if err != nil {
			return err
		}

		if err := c.sendMsg(ClientMessage{Type: "answer", Answer: answer}); err != nil {
			return err
		}

		line, err := c.readLine()
		if err != nil {
			return err
		}
		fmt.Println(line)

		switch {
		case strings.HasPrefix(line, "Correct!"):
			over, err := c.awaitRound()
			if err != nil {
				return err
			}
			if over {
				return nil
			}

		case line == "You are now spectating.":
			return c.spectate()

		default:
			// "Incorrect. Try again." and friends; just prompt again.
		}
	}
}

// awaitRound blocks until the rest of the team has answered, then prints the
// next word. Reports whether the game ended.
func (c *client) awaitRound() (bool, error) {
	// Barrier broadcast.
	line, err := c.readLine()
	if err != nil {
		return false, err
	}
	fmt.Println(line)

	// Next word, or the first half of the game-over pair.
	line, err = c.readLine()
	if err != nil {
		return false, err
	}
	fmt.Println(line)

	if strings.HasPrefix(line, "Congratulations") {
		line, err = c.readLine()
		if err != nil {
			return false, err
		}
		fmt.Println(line)
		return true, nil
	}

	return false, nil
}

// spectate passively prints round broadcasts until the game is over.
func (c *client) spectate() error {
	for {
		line, err := c.readLine()
		if err != nil {
			return err
		}
		fmt.Println(line)

		if strings.HasPrefix(line, "Game Over") {
			return nil
		}
	}
}
