package migrate

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mnesleha/Shopwise/internal/models"
)

type MigrateOptions struct {
	CreateFunctionalIdx bool // lower(email) уникальный индекс
	CreatePartialIdx    bool // единственная ACTIVE-корзина пользователя
	CreateChecks        bool // CHECK-ограничения на количества
	CreateFKsViaSQL     bool // FK через Exec после AutoMigrate
}

func DefaultMigrateOptions() MigrateOptions {
	return MigrateOptions{
		CreateFunctionalIdx: true,
		CreatePartialIdx:    true,
		CreateChecks:        true,
		CreateFKsViaSQL:     true,
	}
}

func MigrateStorefrontDB(ctx context.Context, db *gorm.DB, log *zap.Logger, opt MigrateOptions) error {
	log.Info("Начало миграции базы данных витрины")

	log.Info("Создание расширений PostgreSQL")
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		log.Error("Не удалось включить расширение pgcrypto", zap.Error(err))
		return err
	}

	log.Info("Создание таблиц")
	if err := db.AutoMigrate(
		&models.User{},
		&models.EmailVerificationToken{},
		&models.RefreshToken{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		log.Error("Не удалось создать таблицы", zap.Error(err))
		return err
	}
	log.Info("Таблицы успешно созданы")

	// Триггер updated_at
	if err := db.Exec(`
CREATE OR REPLACE FUNCTION set_updated_at() RETURNS trigger AS $$
BEGIN NEW.updated_at = now(); RETURN NEW; END; $$ LANGUAGE plpgsql;
DROP TRIGGER IF EXISTS trg_users_updated ON users;
CREATE TRIGGER trg_users_updated BEFORE UPDATE ON users
FOR EACH ROW EXECUTE FUNCTION set_updated_at();
DROP TRIGGER IF EXISTS trg_carts_updated ON carts;
CREATE TRIGGER trg_carts_updated BEFORE UPDATE ON carts
FOR EACH ROW EXECUTE FUNCTION set_updated_at();
DROP TRIGGER IF EXISTS trg_orders_updated ON orders;
CREATE TRIGGER trg_orders_updated BEFORE UPDATE ON orders
FOR EACH ROW EXECUTE FUNCTION set_updated_at();
`).Error; err != nil {
		log.Error("Не удалось создать триггеры updated_at", zap.Error(err))
		return err
	}

	if opt.CreateFunctionalIdx {
		log.Info("Создание уникального индекса на lower(email)")
		if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_users_email ON users (lower(email))`).Error; err != nil {
			log.Error("Не удалось создать уникальный индекс на lower(email)", zap.Error(err))
			return err
		}
	}

	if opt.CreatePartialIdx {
		// У пользователя не больше одной ACTIVE-корзины
		log.Info("Создание частичного уникального индекса активных корзин")
		if err := db.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS ux_carts_active_user
ON carts (user_id) WHERE status = 'ACTIVE' AND user_id IS NOT NULL`).Error; err != nil {
			log.Error("Не удалось создать частичный индекс активных корзин", zap.Error(err))
			return err
		}
		if err := db.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS ux_carts_active_token
ON carts (anonymous_token_hash) WHERE status = 'ACTIVE' AND anonymous_token_hash IS NOT NULL`).Error; err != nil {
			log.Error("Не удалось создать частичный индекс анонимных корзин", zap.Error(err))
			return err
		}
	}

	if opt.CreateChecks {
		log.Info("Создание CHECK-ограничений")
		if err := db.Exec(`
ALTER TABLE cart_items DROP CONSTRAINT IF EXISTS chk_cart_items_quantity;
ALTER TABLE cart_items ADD CONSTRAINT chk_cart_items_quantity CHECK (quantity >= 1);
ALTER TABLE order_items DROP CONSTRAINT IF EXISTS chk_order_items_quantity;
ALTER TABLE order_items ADD CONSTRAINT chk_order_items_quantity CHECK (quantity >= 1);
ALTER TABLE products DROP CONSTRAINT IF EXISTS chk_products_stock;
ALTER TABLE products ADD CONSTRAINT chk_products_stock CHECK (stock_quantity >= 0);
`).Error; err != nil {
			log.Error("Не удалось создать CHECK-ограничения", zap.Error(err))
			return err
		}
	}

	if opt.CreateFKsViaSQL {
		log.Info("Создание внешних ключей")
		if err := db.Exec(`
ALTER TABLE refresh_tokens
  DROP CONSTRAINT IF EXISTS fk_refresh_user,
  ADD CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE;
ALTER TABLE email_verification_tokens
  DROP CONSTRAINT IF EXISTS fk_emailv_user,
  ADD CONSTRAINT fk_emailv_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE;
ALTER TABLE cart_items
  DROP CONSTRAINT IF EXISTS fk_cart_items_cart,
  ADD CONSTRAINT fk_cart_items_cart FOREIGN KEY (cart_id) REFERENCES carts(id) ON DELETE CASCADE;
ALTER TABLE cart_items
  DROP CONSTRAINT IF EXISTS fk_cart_items_product,
  ADD CONSTRAINT fk_cart_items_product FOREIGN KEY (product_id) REFERENCES products(id);
ALTER TABLE order_items
  DROP CONSTRAINT IF EXISTS fk_order_items_order,
  ADD CONSTRAINT fk_order_items_order FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE;
ALTER TABLE order_items
  DROP CONSTRAINT IF EXISTS fk_order_items_product,
  ADD CONSTRAINT fk_order_items_product FOREIGN KEY (product_id) REFERENCES products(id);
`).Error; err != nil {
			log.Error("Не удалось создать внешние ключи", zap.Error(err))
			return err
		}
	}

	log.Info("Миграция базы данных витрины успешно завершена")
	return nil
}
