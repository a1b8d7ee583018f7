// Basic check of the configured sheets endpoint
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
)

func main() {
	endpoint := os.Getenv("SURVEY_SHEETS_ENDPOINT")
	spreadsheetID := os.Getenv("SURVEY_SHEETS_SPREADSHEET_ID")
	if endpoint == "" || spreadsheetID == "" {
		fmt.Println("set SURVEY_SHEETS_ENDPOINT and SURVEY_SHEETS_SPREADSHEET_ID first")
		return
	}

	req, err := http.NewRequest(http.MethodGet, endpoint+"/"+spreadsheetID+"/values/responses!A1:U1", nil)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	if token := os.Getenv("SURVEY_SHEETS_TOKEN"); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer resp.Body.Close()

	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		fmt.Println("error:", err)
		return
	}

	values, ok := data["values"].([]any)
	if !ok || len(values) == 0 {
		fmt.Println("sheet is empty; header row will be created on first run")
		return
	}
	fmt.Println("header row:", values[0])
}
