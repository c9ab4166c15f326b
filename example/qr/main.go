package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/vuquang23/go-steam-session/session"
)

func main() {
	manager := session.New()
	defer manager.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	s, err := manager.BeginWithQR(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer s.Cancel()

	fmt.Println("scan with the Steam mobile app:", s.ChallengeURL())

	shown := s.ChallengeURL()
	ticker := time.NewTicker(s.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-s.Done():
			res, err := s.Wait(ctx)
			if err != nil {
				log.Fatal(err)
			}
			fmt.Printf("logged in as %s (%d)\n", res.AccountName, res.SteamID)
			fmt.Println("refresh token:", res.Tokens.RefreshToken)
			return

		case <-ctx.Done():
			log.Fatal(ctx.Err())

		case <-ticker.C:
			if url := s.ChallengeURL(); url != shown {
				shown = url
				fmt.Println("challenge rotated:", url)
			}
			fmt.Println("status:", s.Status())
		}
	}
}
