// Demo data seeder for local development: fills the cache with a handful of
// clients, tools and contracts so the UI has something to render without a
// reachable backend.
package main

import (
	"fmt"
	"log"
	"time"

	"github.com/1abama1/prokatgo/internal/config"
	"github.com/1abama1/prokatgo/internal/database"
	"github.com/1abama1/prokatgo/internal/models"
	"github.com/1abama1/prokatgo/internal/store"
	"github.com/google/uuid"
)

func main() {
	fmt.Println("🌱 prokatgo Demo Data Seeder")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("🔨 Running database migrations...")
	err = db.AutoMigrate(
		&models.Contract{},
		&models.SyncAction{},
		&models.SyncMetadata{},
		&models.CachedClient{},
		&models.CachedTool{},
	)
	if err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	var contractCount int64
	db.Model(&models.Contract{}).Count(&contractCount)
	if contractCount > 0 {
		fmt.Printf("⚠️  Database already has %d contracts. Clear it first? (y/N): ", contractCount)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("❌ Aborted. Database not modified.")
			return
		}
		fmt.Println("🗑️  Clearing existing data...")
		db.Exec("DELETE FROM sync_queue")
		db.Exec("DELETE FROM contracts")
		db.Exec("DELETE FROM cached_clients")
		db.Exec("DELETE FROM cached_tools")
	}

	fmt.Println("👤 Creating demo clients...")
	refdata := store.NewRefData(db)
	err = refdata.UpsertClients([]models.CachedClient{
		{ID: 1, FullName: "Иванов Пётр Сергеевич", Phone: "+7 900 111-22-33"},
		{ID: 2, FullName: "Сидорова Анна Павловна", Phone: "+7 900 222-33-44"},
		{ID: 3, FullName: "Кузнецов Олег Иванович", Phone: "+7 900 333-44-55", Problem: true},
	})
	if err != nil {
		log.Fatalf("❌ Failed to seed clients: %v", err)
	}

	fmt.Println("🔧 Creating demo tools...")
	err = refdata.UpsertTools([]models.CachedTool{
		{ID: 1, Name: "Перфоратор Bosch GBH 2-26", InventoryCode: "PF-0001", DailyRate: 600},
		{ID: 2, Name: "Бетономешалка 160л", InventoryCode: "BM-0002", DailyRate: 900},
		{ID: 3, Name: "Шуруповёрт Makita DF333", InventoryCode: "SH-0003", DailyRate: 300},
		{ID: 4, Name: "Виброплита 90кг", InventoryCode: "VP-0004", DailyRate: 1500},
	})
	if err != nil {
		log.Fatalf("❌ Failed to seed tools: %v", err)
	}

	fmt.Println("📄 Creating demo contracts...")
	contracts := store.NewContracts(db)

	amount := 1800.0
	remoteID := int64(101)
	number := "R-2025-08-20-101"
	synced := &models.Contract{
		LocalID:        uuid.NewString(),
		RemoteID:       &remoteID,
		ClientID:       1,
		ToolID:         2,
		ClientName:     "Иванов Пётр Сергеевич",
		ToolName:       "Бетономешалка 160л",
		ContractNumber: &number,
		StartDateTime:  time.Now().AddDate(0, 0, -3).Format(time.RFC3339),
		Amount:         &amount,
		Status:         models.ContractActive,
		SyncStatus:     models.SyncSynced,
	}
	if err := contracts.Insert(synced); err != nil {
		log.Fatalf("❌ Failed to seed contract: %v", err)
	}

	pending := &models.Contract{
		LocalID:       uuid.NewString(),
		ClientID:      2,
		ToolID:        1,
		ClientName:    "Сидорова Анна Павловна",
		ToolName:      "Перфоратор Bosch GBH 2-26",
		StartDateTime: time.Now().Format(time.RFC3339),
		Status:        models.ContractActive,
		SyncStatus:    models.SyncPending,
	}
	if err := contracts.Insert(pending); err != nil {
		log.Fatalf("❌ Failed to seed contract: %v", err)
	}

	queue := store.NewQueue(db)
	_, err = queue.Enqueue(models.ActionCreate, pending.LocalID, map[string]interface{}{
		"clientId": pending.ClientID,
		"toolId":   pending.ToolID,
	})
	if err != nil {
		log.Fatalf("❌ Failed to seed queue entry: %v", err)
	}

	fmt.Println("✅ Demo data seeded: 3 clients, 4 tools, 2 contracts (1 pending sync)")
}
