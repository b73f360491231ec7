package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/xavierca1/bitrix-leadsync/internal/infra/integration/bitrix"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  Aviso: arquivo .env não encontrado, usando variáveis de ambiente do sistema")
	}

	webhook := os.Getenv("BITRIX_WEBHOOK")
	if webhook == "" {
		log.Fatal("❌ BITRIX_WEBHOOK deve estar configurado no .env")
	}

	date := os.Getenv("SAMPLE_DATE")
	if date == "" {
		date = time.Now().UTC().AddDate(0, 0, -1).Format(bitrix.DateLayout)
	}

	client := bitrix.NewClient(webhook)

	fmt.Printf("🔄 Buscando deals do Bitrix com BEGINDATE=%s...\n\n", date)

	deals, dropped, err := client.FetchLeads(context.Background(), map[string]string{
		"BEGINDATE": date,
	})
	if err != nil {
		log.Fatalf("Erro ao buscar deals no Bitrix: %v", err)
	}

	for _, deal := range deals {
		day, err := bitrix.ResolveLocalDay(deal.DateCreate)
		if err != nil {
			fmt.Printf("   ⚠️ deal #%s com timestamp imprestável: %v\n", deal.ID, err)
			continue
		}
		fmt.Printf("   #%s %q criado em %s → dia local %s\n",
			deal.ID, deal.Title, deal.DateCreate, day.LocalDate)
	}

	fmt.Printf("\nBusca concluída!\n")
	fmt.Printf(" Deals válidos: %d\n", len(deals))
	fmt.Printf(" Descartados na validação: %d\n", dropped)
}
