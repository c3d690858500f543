package main

import (
	"log"
	"time"

	"shop/internal/config"
	"shop/internal/domain/model"
	"shop/internal/handler"
	"shop/internal/infra/db"
	"shop/internal/infra/filestore"
	infraRepo "shop/internal/infra/repository"
	"shop/internal/repository"
	"shop/internal/server"
	"shop/internal/usecase"
	"shop/internal/validator"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

type repos struct {
	users    repository.UserRepository
	products repository.ProductRepository
	cart     repository.CartRepository
	tx       repository.TransactionManager
}

// STORAGE_DRIVERに応じてリポジトリ一式を組み立てる
func buildRepos(cfg config.Config) (repos, error) {
	if cfg.StorageDriver == config.StorageDriverFile {
		store, err := filestore.Open(cfg.DataDir)
		if err != nil {
			return repos{}, err
		}

		return repos{
			users:    filestore.NewUserStore(store),
			products: filestore.NewProductStore(store),
			cart:     filestore.NewCartStore(store),
			tx:       filestore.NewTxManager(store),
		}, nil
	}

	gormDB, err := db.Connect(cfg)
	if err != nil {
		return repos{}, err
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
	); err != nil {
		return repos{}, err
	}

	return repos{
		users:    infraRepo.NewUserGormRepository(gormDB),
		products: infraRepo.NewProductGormRepository(gormDB),
		cart:     infraRepo.NewCartGormRepository(gormDB),
		tx:       infraRepo.NewTxManagerGorm(gormDB),
	}, nil
}

func main() {
	//.envは無くても起動できる
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	r, err := buildRepos(cfg)
	if err != nil {
		log.Fatal(err)
	}

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}
	userValidator := validator.NewUserValidator()

	//Usecase生成
	userUC := usecase.NewUserUsecase(r.users, userValidator, clock, cfg.JWTSecret)
	productUC := usecase.NewProductUsecase(r.products)
	cartUC := usecase.NewCartUsecase(r.cart, r.products)
	orderUC := usecase.NewOrderUsecase(r.tx, idGen, clock)
	adminOrderUC := usecase.NewAdminOrderUsecase(r.tx, clock, cfg.StrictOrderTransitions)

	//Handler生成・DI
	h := server.Handlers{
		User:       handler.NewUserHandler(userUC),
		Product:    handler.NewProductHandler(productUC),
		Cart:       handler.NewCartHandler(cartUC),
		Order:      handler.NewOrderHandler(orderUC, idGen),
		AdminOrder: handler.NewAdminOrderHandler(adminOrderUC),
	}

	e := server.New(cfg, h)
	if err := server.Start(e, cfg); err != nil {
		log.Fatal(err)
	}
}
