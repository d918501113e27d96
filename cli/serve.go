package cli

import (
	"log"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/haycash/toolbox/catalog"
	"github.com/haycash/toolbox/client"
	"github.com/haycash/toolbox/config"
	"github.com/haycash/toolbox/handler"
	"github.com/haycash/toolbox/service"
)

var servePort string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ToolBox HTTP server",
	Long: `Serve exposes every tool under /api/v1:

  POST /api/v1/csf/extract          CSF / CFDI batch extraction
  POST /api/v1/contrato/extract     contract amount extraction
  POST /api/v1/bbva/generate        BBVA fixed-width layout
  POST /api/v1/factoraje/report     supplier concentration report
  GET  /api/v1/factoraje/status     last Syntage call
  POST /api/v1/edocat/read          bank statement summary
  GET  /api/v1/leads                lead review listing
  POST /api/v1/leads/review         mark leads reviewed
  POST /api/v1/leads/review/reset   clear every review mark`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (default TOOLBOX_PORT or 8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.LoadConfig()
	ensureTessdata(cfg)
	log.Println("TESSDATA_PREFIX set to:", cfg.OCR.TesseractDataPath)

	// Initialize Tesseract client
	tesseractClient := client.NewTesseractClient(cfg.OCR.TesseractDataPath, cfg.OCR.Languages)
	defer tesseractClient.Close()

	// Initialize PDF processor
	pdfProcessor := service.NewPDFProcessor()

	// The matcher degrades to lexical stages when OpenAI is not
	// configured.
	var picker service.ActivityPicker
	if cfg.OpenAI.APIKey != "" {
		llm, err := client.NewLLMClient(cfg.OpenAI)
		if err != nil {
			log.Printf("OpenAI disabled: %v", err)
		} else {
			picker = llm
		}
	}
	matchCache := gocache.New(cfg.Catalog.CacheTTL, cfg.Catalog.CacheCleanup)
	satService := service.NewSATService(catalog.NewStore(cfg.Catalog.Dir), picker, matchCache, nil)

	// Initialize service layer
	documentService := service.NewDocumentService(pdfProcessor, tesseractClient, satService, nil)
	contratoService := service.NewContratoService(pdfProcessor, tesseractClient, nil)
	bbvaService := service.NewBBVAService(nil)
	syntageClient := client.NewSyntageClient(cfg.Syntage.Environment, cfg.Syntage.APIKey)
	factorajeService := service.NewFactorajeService(syntageClient, nil)
	edocatService := service.NewEdocatService(pdfProcessor, tesseractClient, nil)
	reviewStore := service.NewReviewStore(cfg.Leads.ReviewedCSV)
	leadsService := service.NewLeadsService(cfg.Leads.SnapshotCSV, cfg.Leads.BlockedCSV, reviewStore, nil)

	// Initialize handler layer
	documentHandler := handler.NewDocumentHandler(documentService)
	contratoHandler := handler.NewContratoHandler(contratoService)
	bbvaHandler := handler.NewBBVAHandler(bbvaService)
	factorajeHandler := handler.NewFactorajeHandler(factorajeService)
	edocatHandler := handler.NewEdocatHandler(edocatService)
	leadsHandler := handler.NewLeadsHandler(leadsService)

	// Setup Gin router
	router := gin.Default()

	// Configure max multipart memory (32 MB)
	router.MaxMultipartMemory = cfg.Server.MaxFileSize

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "HayCash ToolBox",
		})
	})

	// API routes
	api := router.Group("/api/v1")
	{
		csf := api.Group("/csf")
		{
			csf.POST("/extract", documentHandler.ExtractCSF)
		}
		contrato := api.Group("/contrato")
		{
			contrato.POST("/extract", contratoHandler.ExtractContracts)
		}
		bbva := api.Group("/bbva")
		{
			bbva.POST("/generate", bbvaHandler.Generate)
		}
		factoraje := api.Group("/factoraje")
		{
			factoraje.POST("/report", factorajeHandler.BuildReport)
			factoraje.GET("/status", factorajeHandler.Status)
		}
		edocat := api.Group("/edocat")
		{
			edocat.POST("/read", edocatHandler.ReadStatement)
		}
		leads := api.Group("/leads")
		{
			leads.GET("", leadsHandler.List)
			leads.POST("/review", leadsHandler.MarkReviewed)
			leads.POST("/review/reset", leadsHandler.ResetReviews)
		}
	}

	port := servePort
	if port == "" {
		port = viper.GetString("port")
	}
	if port == "" {
		port = cfg.Server.Port
	}

	// Start server
	log.Printf("Starting HayCash ToolBox on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	return nil
}
