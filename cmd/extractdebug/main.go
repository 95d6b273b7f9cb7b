// extractdebug runs OCR and attribute extraction over a local image
// file and prints the result, for tuning the rule chains without a
// running server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"cardscan/pkg/extract"
	"cardscan/pkg/ocr"
)

func main() {
	file := flag.String("file", "", "card image file")
	lang := flag.String("lang", "eng", "tesseract language")
	showText := flag.Bool("text", false, "print the raw OCR text")
	flag.Parse()
	if *file == "" {
		log.Fatalf("-file required")
	}
	img, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("read %s: %v", *file, err)
	}

	text, err := ocr.NewTesseract(*lang).Recognize(context.Background(), img)
	if err != nil {
		log.Fatalf("ocr error: %v", err)
	}
	if *showText {
		fmt.Println("--- OCR text ---")
		fmt.Println(text)
		fmt.Println("----------------")
	}

	attrs := extract.Extract(text, extract.DefaultVocabulary())
	out, _ := json.MarshalIndent(attrs, "", "  ")
	fmt.Println(string(out))
}
