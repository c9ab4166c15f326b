package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/vuquang23/go-steam-session/community"
	"github.com/vuquang23/go-steam-session/session"
)

var (
	accountName  string
	password     string
	sharedSecret string
	emailCode    string
)

const baseUrl = "https://steamcommunity.com"

func init() {
	accountName = os.Getenv("ACCOUNT_NAME")
	password = os.Getenv("PASSWORD")
	sharedSecret = os.Getenv("SHARED_SECRET")
	emailCode = os.Getenv("EMAIL_CODE")
}

func main() {
	communityClient, err := community.NewClient()
	if err != nil {
		log.Fatal(err)
	}
	defer communityClient.Logout()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	err = communityClient.Login(ctx, community.LoginDetails{
		AccountName:  accountName,
		Password:     password,
		SharedSecret: sharedSecret,
		EmailCode:    emailCode,
		Code:         askCode,
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("steam id:", communityClient.GetSteamID())
	fmt.Println("session id:", communityClient.GetSessionID())

	communityUrl, err := url.Parse(baseUrl)
	if err != nil {
		log.Fatal(err)
	}
	for _, cookie := range communityClient.GetCookies(communityUrl) {
		fmt.Printf("%s=%s\n", cookie.Name, cookie.Value)
	}

	if err := communityClient.Refresh(ctx); err != nil {
		log.Fatal(err)
	}
	fmt.Println("refreshed access token:", communityClient.GetAccessToken())
}

var stdin = bufio.NewReader(os.Stdin)

func askCode(method session.Method) (string, error) {
	fmt.Printf("%v: ", method)

	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}

	return strings.TrimSpace(line), nil
}
