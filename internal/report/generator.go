package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/firestation/dutybot/internal/application/port"
	"github.com/firestation/dutybot/internal/domain/entity"
)

const sheetName = "Dispatches"

var header = []string{
	"ID", "Created", "Status", "Address", "Reason",
	"Crew", "Vehicles", "Victims", "Fatalities", "Notes",
}

// Generator builds dispatch report workbooks. When an archive storage is
// attached, every built workbook is also written there; archive failures are
// logged but never fail the report.
type Generator struct {
	dispatches port.DispatchRepository
	employees  port.EmployeeRepository
	vehicles   port.VehicleRepository
	archive    port.FileStorage
	logger     *zap.Logger
}

// NewGenerator creates a report generator.
func NewGenerator(dispatches port.DispatchRepository, employees port.EmployeeRepository, vehicles port.VehicleRepository, logger *zap.Logger) *Generator {
	return &Generator{
		dispatches: dispatches,
		employees:  employees,
		vehicles:   vehicles,
		logger:     logger,
	}
}

// WithArchive attaches a storage that keeps a copy of every built workbook.
func (g *Generator) WithArchive(archive port.FileStorage) *Generator {
	g.archive = archive
	return g
}

// Build renders every dispatch order created within [from, to) into an xlsx
// workbook and returns the file name with its content.
func (g *Generator) Build(ctx context.Context, from, to time.Time) (string, []byte, error) {
	orders, err := g.dispatches.ListByPeriod(ctx, from, to)
	if err != nil {
		return "", nil, fmt.Errorf("list dispatches: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return "", nil, fmt.Errorf("drop default sheet: %w", err)
	}

	for col, title := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return "", nil, err
		}
		if err := f.SetCellValue(sheetName, cell, title); err != nil {
			return "", nil, err
		}
	}

	for i, order := range orders {
		crew, err := g.crewNames(ctx, order)
		if err != nil {
			return "", nil, err
		}
		plates, err := g.vehiclePlates(ctx, order)
		if err != nil {
			return "", nil, err
		}

		row := []interface{}{
			order.ID,
			order.CreationTime.Format("02.01.2006 15:04"),
			order.Status,
			order.Address,
			order.Reason,
			crew,
			plates,
			order.VictimsCount,
			order.FatalitiesCount,
			order.Notes,
		}
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return "", nil, err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return "", nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", nil, fmt.Errorf("serialize workbook: %w", err)
	}

	g.logger.Info("dispatch report built",
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int("orders", len(orders)))

	name := fmt.Sprintf("dispatches_%s_%s.xlsx", from.Format("02.01.2006"), to.AddDate(0, 0, -1).Format("02.01.2006"))
	content := buf.Bytes()

	if g.archive != nil {
		if err := g.archive.Save(ctx, name, content); err != nil {
			g.logger.Warn("failed to archive dispatch report",
				zap.String("name", name),
				zap.Error(err))
		}
	}

	return name, content, nil
}

func (g *Generator) crewNames(ctx context.Context, order *entity.DispatchOrder) (string, error) {
	ids, err := order.PersonnelIDs()
	if err != nil {
		return "", fmt.Errorf("order %d personnel: %w", order.ID, err)
	}
	if len(ids) == 0 {
		return "", nil
	}
	crew, err := g.employees.ListByIDs(ctx, ids)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(crew))
	for _, c := range crew {
		names = append(names, c.FullName)
	}
	return strings.Join(names, ", "), nil
}

func (g *Generator) vehiclePlates(ctx context.Context, order *entity.DispatchOrder) (string, error) {
	ids, err := order.VehicleIDs()
	if err != nil {
		return "", fmt.Errorf("order %d vehicles: %w", order.ID, err)
	}
	if len(ids) == 0 {
		return "", nil
	}
	vehicles, err := g.vehicles.ListByIDs(ctx, ids)
	if err != nil {
		return "", err
	}
	plates := make([]string, 0, len(vehicles))
	for _, v := range vehicles {
		plates = append(plates, v.Plate)
	}
	return strings.Join(plates, ", "), nil
}
