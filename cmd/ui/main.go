package main

import (
	"log"

	"github.com/joho/godotenv"

	"shelflife/adapters/excel"
	"shelflife/adapters/ingestion"
	"shelflife/app"
	"shelflife/domain/stability"
	"shelflife/internal/analysis"
	"shelflife/internal/config"
	"shelflife/internal/testkit"
	"shelflife/ui"
)

func loadObservations(path string) ([]stability.Observation, error) {
	data, err := excel.NewDataReader(path).ReadData()
	if err != nil {
		return nil, err
	}
	result, err := ingestion.NewCoercer().FromSheet(data)
	if err != nil {
		return nil, err
	}
	for _, issue := range result.Issues {
		log.Printf("Skipping row %d: %s", issue.Row, issue.Reason)
	}
	return result.Observations, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	conditions, err := config.LoadConditions(appConfig.Data.ConditionsFile)
	if err != nil {
		log.Fatalf("Failed to load condition table: %v", err)
	}

	source := appConfig.Data.ExcelFile
	var observations []stability.Observation
	if source != "" {
		log.Printf("Using Excel data source: %s", source)
		observations, err = loadObservations(source)
		if err != nil {
			log.Fatalf("Failed to load %s: %v", source, err)
		}
	} else {
		log.Printf("No Excel file configured, using synthetic stability data")
		source = "synthetic"
		observations = testkit.NewStabilityDataGenerator(testkit.DefaultStabilityConfig()).Generate()
	}

	engine := analysis.NewEngine(conditions,
		analysis.WithWorkers(appConfig.Analysis.Workers),
		analysis.WithCriteria(appConfig.Analysis.Criteria),
	)
	viewer, err := ui.NewApp(ui.Config{
		Port:      appConfig.Server.UIPort,
		SpecLimit: appConfig.Analysis.DefaultSpecLimit,
		Source:    source,
	}, app.NewAnalysisService(engine, nil), observations)
	if err != nil {
		log.Fatal("Failed to create UI app:", err)
	}

	log.Printf("Starting report viewer on http://localhost:%s", appConfig.Server.UIPort)
	log.Fatal(viewer.Start())
}
