package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var memberDebugAddr string

func init() {
	rootCmd.AddCommand(memberCmd)
	memberCmd.AddCommand(memberListCmd)
	memberCmd.AddCommand(memberJoinCmd)
	memberCmd.PersistentFlags().StringVar(&memberDebugAddr, "addr", "http://127.0.0.1:9640", "base URL of a running gossipd's debug HTTP surface")
}

var memberCmd = &cobra.Command{
	Use:   "member",
	Short: "Inspect the membership view of a running gossipd",
}

var memberListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the members known to a running gossipd",
	RunE:  runMemberList,
}

var memberJoinCmd = &cobra.Command{
	Use:   "join <host:port> [host:port...]",
	Short: "Tell a running gossipd to join one or more seed members",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMemberJoin,
}

func runMemberJoin(cmd *cobra.Command, args []string) error {
	body, err := json.Marshal(map[string][]string{"addrs": args})
	if err != nil {
		return err
	}

	client := http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(memberDebugAddr+"/debug/join", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("member join: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("member join: %s: %s", resp.Status, msg)
	}
	fmt.Printf("joining %d seed(s)\n", len(args))
	return nil
}

func runMemberList(cmd *cobra.Command, args []string) error {
	client := http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(memberDebugAddr + "/debug/members")
	if err != nil {
		return fmt.Errorf("member list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("member list: %s: %s", resp.Status, body)
	}

	var members []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&members); err != nil {
		return fmt.Errorf("member list: decode response: %w", err)
	}
	for _, m := range members {
		fmt.Println(string(m))
	}
	return nil
}
