// Package health は外部依存サービスの死活を調べ、結果を1つのレポートに集約する。
//
// 各依存サービスは互いに独立して並行に調べられ、1つの失敗が他の確認を妨げることはない。
// いずれか1つでも異常であれば全体の状態は異常になる。
package health
