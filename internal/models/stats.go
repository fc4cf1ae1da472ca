package models

// InsightReason один из факторов успеха сценария.
type InsightReason struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// SuccessInsight разбор того, почему сценарий сработал.
type SuccessInsight struct {
	Headline            string          `json:"headline"`
	SummaryText         string          `json:"summaryText"`
	Reasons             []InsightReason `json:"reasons"`
	ReplicationStrategy string          `json:"replicationStrategy"`
}

// ROI результат калькулятора окупаемости.
type ROI struct {
	TotalClicks       int64   `json:"totalClicks"`
	ConversionRate    float64 `json:"conversionRate"`
	AverageOrderValue float64 `json:"averageOrderValue"`
	PotentialSales    float64 `json:"potentialSales"`
	Cost              float64 `json:"cost"`
	ROI               int64   `json:"roi"`
}

// DailyClicks клики за день недели.
type DailyClicks struct {
	Name     string `json:"name"`
	Clicks   int64  `json:"clicks"`
	AdClicks int64  `json:"adClicks"`
}

// TrafficSource источник трафика.
type TrafficSource struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// Overview данные для дашборда.
type Overview struct {
	WeeklyClicks   []DailyClicks   `json:"weeklyClicks"`
	TrafficSources []TrafficSource `json:"trafficSources"`
}
