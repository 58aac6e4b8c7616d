package cfg

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/e2b-dev/infra/packages/flash/pkg/norflash"
)

type Config struct {
	ImagePath string `env:"FLASH_IMAGE_PATH" envDefault:"flash.img"`
	Capacity  int    `env:"FLASH_CAPACITY"   envDefault:"65536"`

	ReadSize  int   `env:"FLASH_READ_SIZE"  envDefault:"1"`
	WriteSize int   `env:"FLASH_WRITE_SIZE" envDefault:"4"`
	EraseSize int   `env:"FLASH_ERASE_SIZE" envDefault:"4096"`
	EraseByte uint8 `env:"FLASH_ERASE_BYTE" envDefault:"255"`

	// Multiwrite enables in-place AND writes that skip the erase when possible.
	Multiwrite bool `env:"FLASH_MULTIWRITE"`
	Debug      bool `env:"FLASH_DEBUG"`
}

func (c Config) Geometry() norflash.Geometry {
	return norflash.Geometry{
		ReadSize:  c.ReadSize,
		WriteSize: c.WriteSize,
		EraseSize: c.EraseSize,
		EraseByte: c.EraseByte,
	}
}

func Parse() (Config, error) {
	config, err := env.ParseAsWithOptions[Config](env.Options{})
	if err != nil {
		return config, err
	}

	if err := config.Geometry().Validate(config.Capacity); err != nil {
		return config, fmt.Errorf("invalid flash geometry: %w", err)
	}

	return config, nil
}
