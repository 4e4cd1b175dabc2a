package store

import (
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/packagewjx/energy-analyzer/pkg/core"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"

	DefaultDriver = DriverSQLite
	DefaultDSN    = "energy.db"
)

type Config struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

func (c *Config) Complete() error {
	if c.Driver == "" {
		c.Driver = DefaultDriver
	}
	if c.DSN == "" {
		if c.Driver != DriverSQLite {
			return fmt.Errorf("dsn is required for driver %s", c.Driver)
		}
		c.DSN = DefaultDSN
	}
	switch c.Driver {
	case DriverSQLite, DriverMySQL:
		return nil
	default:
		return fmt.Errorf("unsupported store driver %q", c.Driver)
	}
}

type UpdateDao interface {
	SaveNodes(nodes []*core.NodeMetadata) error
	// 同一批次已有的记录会先被删除
	SaveObservations(batch string, obs []*core.EnergyObservation) error
	SaveStatistics(batch string, stats []*core.EnergyStatistics) error
	RemoveBatch(batch string) error
}

type QueryDao interface {
	QueryObservations(batch string) ([]*core.EnergyObservation, error)
	QueryStatistics(batch string) ([]*core.EnergyStatistics, error)
}

type Dao interface {
	DB() *gorm.DB
	UpdateDao
	QueryDao
}

type daoImpl struct {
	db *gorm.DB
}

var _ Dao = &daoImpl{}

const maxOneRun = 5000

func NewDao(config *Config) (Dao, error) {
	if err := config.Complete(); err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch config.Driver {
	case DriverMySQL:
		dialector = mysql.Open(config.DSN)
	default:
		dialector = sqlite.Open(config.DSN)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "error connecting to %s database", config.Driver)
	}

	err = db.AutoMigrate(&NodeDO{}, &EnergyObservationDO{}, &EnergyStatisticsDO{})
	if err != nil {
		return nil, errors.Wrap(err, "error creating tables")
	}

	return &daoImpl{db: db}, nil
}

func (d *daoImpl) DB() *gorm.DB {
	return d.db
}

func (d *daoImpl) SaveNodes(nodes []*core.NodeMetadata) error {
	if len(nodes) == 0 {
		return nil
	}
	dos := make([]*NodeDO, len(nodes))
	for i, node := range nodes {
		dos[i] = toNodeDO(node)
	}
	err := d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uid"}, {Name: "cluster"}},
		UpdateAll: true,
	}).CreateInBatches(dos, maxOneRun).Error
	if err != nil {
		return errors.Wrap(err, "error saving nodes")
	}
	log.Debugf("saved %d nodes", len(dos))
	return nil
}

func (d *daoImpl) SaveObservations(batch string, obs []*core.EnergyObservation) error {
	dos := make([]*EnergyObservationDO, len(obs))
	for i, o := range obs {
		dos[i] = &EnergyObservationDO{
			Batch:       batch,
			Tool:        string(o.Tool),
			Task:        o.Task,
			Site:        o.Site,
			Cluster:     o.Cluster,
			Node:        o.Node,
			CoreCount:   o.CoreCount,
			OpsPerCore:  o.OpsPerCore,
			Iteration:   o.Iteration,
			EnergyPkg:   o.EnergyPkg,
			EnergyCores: o.EnergyCores,
			EnergyRAM:   o.EnergyRAM,
		}
	}

	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("batch = ?", batch).Delete(&EnergyObservationDO{}).Error; err != nil {
			return errors.Wrapf(err, "error removing observations of batch %s", batch)
		}
		if len(dos) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(dos, maxOneRun).Error; err != nil {
			return errors.Wrapf(err, "error saving observations of batch %s", batch)
		}
		log.Debugf("saved %d observations of batch %s", len(dos), batch)
		return nil
	})
}

func (d *daoImpl) SaveStatistics(batch string, stats []*core.EnergyStatistics) error {
	dos := make([]*EnergyStatisticsDO, len(stats))
	for i, s := range stats {
		dos[i] = &EnergyStatisticsDO{
			Batch:      batch,
			Node:       s.Node,
			Cluster:    s.Cluster,
			Task:       s.Task,
			Tool:       string(s.Tool),
			CoreCount:  s.CoreCount,
			OpsPerCore: s.OpsPerCore,
			Pkg:        toDomainDO(s.Pkg),
			Cores:      toDomainDO(s.Cores),
			RAM:        toDomainDO(s.RAM),
		}
	}

	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("batch = ?", batch).Delete(&EnergyStatisticsDO{}).Error; err != nil {
			return errors.Wrapf(err, "error removing statistics of batch %s", batch)
		}
		if len(dos) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(dos, maxOneRun).Error; err != nil {
			return errors.Wrapf(err, "error saving statistics of batch %s", batch)
		}
		log.Debugf("saved %d statistics of batch %s", len(dos), batch)
		return nil
	})
}

func (d *daoImpl) RemoveBatch(batch string) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("batch = ?", batch).Delete(&EnergyObservationDO{}).Error; err != nil {
			return err
		}
		return tx.Where("batch = ?", batch).Delete(&EnergyStatisticsDO{}).Error
	})
}

func (d *daoImpl) QueryObservations(batch string) ([]*core.EnergyObservation, error) {
	dos := make([]*EnergyObservationDO, 0)
	err := d.db.Where("batch = ?", batch).Order("id asc").Find(&dos).Error
	if err != nil {
		return nil, errors.Wrapf(err, "error querying observations of batch %s", batch)
	}

	result := make([]*core.EnergyObservation, len(dos))
	for i, do := range dos {
		result[i] = &core.EnergyObservation{
			Tool:        core.Tool(do.Tool),
			Task:        do.Task,
			Site:        do.Site,
			Cluster:     do.Cluster,
			Node:        do.Node,
			CoreCount:   do.CoreCount,
			OpsPerCore:  do.OpsPerCore,
			Iteration:   do.Iteration,
			EnergyPkg:   do.EnergyPkg,
			EnergyCores: do.EnergyCores,
			EnergyRAM:   do.EnergyRAM,
		}
	}
	return result, nil
}

func (d *daoImpl) QueryStatistics(batch string) ([]*core.EnergyStatistics, error) {
	dos := make([]*EnergyStatisticsDO, 0)
	err := d.db.Where("batch = ?", batch).Order("id asc").Find(&dos).Error
	if err != nil {
		return nil, errors.Wrapf(err, "error querying statistics of batch %s", batch)
	}

	result := make([]*core.EnergyStatistics, len(dos))
	for i, do := range dos {
		result[i] = &core.EnergyStatistics{
			Node:       do.Node,
			Cluster:    do.Cluster,
			Task:       do.Task,
			Tool:       core.Tool(do.Tool),
			CoreCount:  do.CoreCount,
			OpsPerCore: do.OpsPerCore,
			Pkg:        do.Pkg.toDomain(),
			Cores:      do.Cores.toDomain(),
			RAM:        do.RAM.toDomain(),
		}
	}
	return result, nil
}
